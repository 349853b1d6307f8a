package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Domenick1991/restobooking/internal/domain"
	"github.com/Domenick1991/restobooking/internal/obs"
	"github.com/Domenick1991/restobooking/internal/service/payments"
	"github.com/Domenick1991/restobooking/internal/webhook"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WebhookHandler terminates the payment provider callback. The provider
// retries until it sees 2xx, so the handler answers 200 for every settled
// outcome (including duplicates and rejects) and non-2xx only when the
// event could not be durably recorded.
type WebhookHandler struct {
	service  payments.PaymentUseCase
	verifier *webhook.Verifier
}

// paymentEnvelope is the provider's wire shape.
type paymentEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			PaymentIntentRef string `json:"payment_intent"`
			AmountCents      int64  `json:"amount"`
			Currency         string `json:"currency"`
			Metadata         struct {
				BookingID    int64 `json:"booking_id,string"`
				TenantID     int64 `json:"tenant_id,string"`
				RestaurantID int64 `json:"restaurant_id,string"`
			} `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

func NewWebhookHandler(service payments.PaymentUseCase, verifier *webhook.Verifier) *WebhookHandler {
	return &WebhookHandler{service: service, verifier: verifier}
}

func (h *WebhookHandler) Register(router *gin.RouterGroup) {
	router.POST("/payments", h.handlePayment)
}

func (h *WebhookHandler) handlePayment(c *gin.Context) {
	correlationID := uuid.NewString()
	logger := obs.Logger()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return
	}

	if err := h.verifier.Verify(body, c.GetHeader("Payment-Signature")); err != nil {
		logger.Printf("[%s] webhook signature rejected: %v", correlationID, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var envelope paymentEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		logger.Printf("[%s] webhook payload malformed: %v", correlationID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}
	if envelope.ID == "" || envelope.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing event id or type"})
		return
	}

	event := &domain.PaymentEvent{
		EventID:          envelope.ID,
		Type:             envelope.Type,
		PaymentIntentRef: envelope.Data.Object.PaymentIntentRef,
		AmountCents:      envelope.Data.Object.AmountCents,
		Currency:         envelope.Data.Object.Currency,
		BookingID:        envelope.Data.Object.Metadata.BookingID,
		TenantID:         envelope.Data.Object.Metadata.TenantID,
		RestaurantID:     envelope.Data.Object.Metadata.RestaurantID,
		ReceivedAt:       time.Now(),
	}

	outcome, err := h.service.HandleEvent(c.Request.Context(), event)
	if err != nil {
		// Nothing durable happened; ask the provider to redeliver.
		logger.Printf("[%s] event %s not settled: %v", correlationID, event.EventID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"})
		return
	}

	logger.Printf("[%s] event %s settled: %s", correlationID, event.EventID, outcome)
	c.JSON(http.StatusOK, gin.H{"outcome": string(outcome)})
}
