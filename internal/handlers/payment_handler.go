package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/learnroad/learnroad-api/internal/services"
)

const idempotencyKeyHeader = "Idempotency-Key"

type PaymentHandler struct {
	service paymentApplicationService
}

type paymentApplicationService interface {
	CapturePayment(ctx context.Context, actor services.Actor, input services.CapturePaymentInput) (*services.PaymentResult, error)
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// cardDetails are checked for shape only and never stored.
type cardDetails struct {
	CardNumber string `json:"card_number" validate:"required,numeric,min=12,max=19"`
	CardExpiry string `json:"card_expiry" validate:"required,datetime=01/06"`
	CardCVC    string `json:"card_cvc" validate:"required,numeric,min=3,max=4"`
}

type capturePaymentRequest struct {
	SessionID     int64        `json:"session_id" validate:"required,gt=0"`
	Amount        float64      `json:"amount" validate:"required,gt=0"`
	PaymentMethod string       `json:"payment_method" validate:"required,oneof=card credit_card paypal bank_transfer"`
	CardDetails   *cardDetails `json:"card_details" validate:"omitempty"`
}

func (h *PaymentHandler) CapturePayment(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}
	if !actor.IsStudent() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only students can pay for sessions"})
	}

	var req capturePaymentRequest
	if msg := bindJSON(c, &req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	result, err := h.service.CapturePayment(c.UserContext(), actor, services.CapturePaymentInput{
		SessionID:      req.SessionID,
		Amount:         req.Amount,
		Method:         req.PaymentMethod,
		IdempotencyKey: strings.TrimSpace(c.Get(idempotencyKeyHeader)),
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to process payment")
	}

	return c.JSON(result)
}
