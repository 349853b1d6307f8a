package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/restobooking/internal/domain"
	"github.com/Domenick1991/restobooking/internal/service/payments"
	"github.com/Domenick1991/restobooking/internal/webhook"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPaymentUseCase is a mock implementation of payments.PaymentUseCase
type MockPaymentUseCase struct {
	mock.Mock
}

func (m *MockPaymentUseCase) HandleEvent(ctx context.Context, event *domain.PaymentEvent) (payments.Outcome, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(payments.Outcome), args.Error(1)
}

var webhookSecret = []byte("whsec_test")

func webhookBody() []byte {
	payload := map[string]interface{}{
		"id":   "evt_1",
		"type": "payment.succeeded",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"payment_intent": "pi_1",
				"amount":         8000,
				"currency":       "eur",
				"metadata": map[string]string{
					"booking_id":    "106",
					"tenant_id":     "3",
					"restaurant_id": "7",
				},
			},
		},
	}
	body, _ := json.Marshal(payload)
	return body
}

func signedRequest(body []byte) *http.Request {
	req := httptest.NewRequest("POST", "/webhooks/payments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Payment-Signature", webhook.Sign(webhookSecret, body, time.Now()))
	return req
}

func TestWebhookHandler_handlePayment(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	handler := NewWebhookHandler(mockService, webhook.NewVerifier(webhookSecret, webhook.DefaultTolerance))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = signedRequest(webhookBody())

	mockService.On("HandleEvent", c.Request.Context(), mock.MatchedBy(func(e *domain.PaymentEvent) bool {
		return e.EventID == "evt_1" &&
			e.Type == "payment.succeeded" &&
			e.PaymentIntentRef == "pi_1" &&
			e.AmountCents == 8000 &&
			e.Currency == "eur" &&
			e.BookingID == 106 &&
			e.TenantID == 3 &&
			e.RestaurantID == 7
	})).Return(payments.OutcomeTransitioned, nil)

	handler.handlePayment(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "transitioned")

	mockService.AssertExpectations(t)
}

func TestWebhookHandler_handlePayment_DuplicateStillOK(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	handler := NewWebhookHandler(mockService, webhook.NewVerifier(webhookSecret, webhook.DefaultTolerance))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = signedRequest(webhookBody())

	mockService.On("HandleEvent", c.Request.Context(), mock.Anything).Return(payments.OutcomeAlreadyProcessed, nil)

	handler.handlePayment(c)

	// 2xx stops provider retries for duplicates too.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already_processed")
}

func TestWebhookHandler_handlePayment_BadSignature(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	handler := NewWebhookHandler(mockService, webhook.NewVerifier(webhookSecret, webhook.DefaultTolerance))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := webhookBody()
	c.Request = httptest.NewRequest("POST", "/webhooks/payments", bytes.NewReader(body))
	c.Request.Header.Set("Payment-Signature", webhook.Sign([]byte("wrong-secret"), body, time.Now()))

	handler.handlePayment(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "HandleEvent")
}

func TestWebhookHandler_handlePayment_MalformedPayload(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	handler := NewWebhookHandler(mockService, webhook.NewVerifier(webhookSecret, webhook.DefaultTolerance))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := []byte("{not json")
	c.Request = signedRequest(body)

	handler.handlePayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "HandleEvent")
}

func TestWebhookHandler_handlePayment_MissingEventID(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	handler := NewWebhookHandler(mockService, webhook.NewVerifier(webhookSecret, webhook.DefaultTolerance))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := []byte(`{"type":"payment.succeeded"}`)
	c.Request = signedRequest(body)

	handler.handlePayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "HandleEvent")
}

func TestWebhookHandler_handlePayment_StorageErrorAsksForRetry(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	handler := NewWebhookHandler(mockService, webhook.NewVerifier(webhookSecret, webhook.DefaultTolerance))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = signedRequest(webhookBody())

	mockService.On("HandleEvent", c.Request.Context(), mock.Anything).
		Return(payments.Outcome(""), errors.New("database down"))

	handler.handlePayment(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
