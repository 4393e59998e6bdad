package repository

import "context"

// Advisory lock namespaces. Each pairs with a tutor id in the two-key form of
// pg_advisory_xact_lock, so booking and ledger writes never block each other.
const (
	LockNamespaceBooking int32 = 1001
	LockNamespaceLedger  int32 = 1002
)

// LockTutor takes a transaction-scoped advisory lock. It must run inside a
// transaction; the lock is released at commit or rollback.
func LockTutor(ctx context.Context, db DBTX, namespace int32, tutorID int64) error {
	_, err := db.Exec(ctx, "SELECT pg_advisory_xact_lock($1::int4, ($2::bigint % 2147483647)::int4)", namespace, tutorID)
	return err
}
