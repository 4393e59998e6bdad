package services

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

type ChargeRequest struct {
	Amount    float64
	Currency  string
	Method    string
	Reference string
}

type ChargeResult struct {
	Approved      bool
	TransactionID string
	DeclineReason string
}

// PaymentGateway captures funds. An error means the gateway could not be
// reached; a decline is reported through ChargeResult.Approved.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// SimulatedGateway approves a fixed share of charges without any external call.
type SimulatedGateway struct {
	mu          sync.Mutex
	rng         *rand.Rand
	successRate float64
}

func NewSimulatedGateway(successRate float64, rng *rand.Rand) *SimulatedGateway {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &SimulatedGateway{rng: rng, successRate: successRate}
}

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}

	g.mu.Lock()
	roll := g.rng.Float64()
	g.mu.Unlock()

	if roll >= g.successRate {
		return ChargeResult{Approved: false, DeclineReason: "card declined"}, nil
	}
	return ChargeResult{Approved: true, TransactionID: "sim_" + uuid.NewString()}, nil
}
