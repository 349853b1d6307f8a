package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/restobooking/internal/domain"
	"github.com/Domenick1991/restobooking/internal/obs"
	"github.com/Domenick1991/restobooking/internal/repository"
	"github.com/Domenick1991/restobooking/internal/service/booking"
	"github.com/Domenick1991/restobooking/internal/token"
	"github.com/gin-gonic/gin"
)

// GuestHandler serves the unauthenticated guest surface. Every route is
// reached through an emailed link carrying a capability hash; the gate
// decides, and any failure gets the same opaque 401 so the response never
// reveals whether a booking exists.
type GuestHandler struct {
	service booking.GuestUseCase
	gate    *token.Gate
	issuer  *token.Issuer
}

type guestBookingResponse struct {
	BookingID     int64  `json:"booking_id"`
	RestaurantID  int64  `json:"restaurant_id"`
	GuestName     string `json:"guest_name"`
	PartySize     int    `json:"party_size"`
	StartsAt      string `json:"starts_at"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
}

type manageBookingResponse struct {
	guestBookingResponse
	CancelURL  string `json:"cancel_url,omitempty"`
	PaymentURL string `json:"payment_url,omitempty"`
}

type paymentDetailsResponse struct {
	BookingID        int64  `json:"booking_id"`
	AmountCents      int64  `json:"amount_cents"`
	Currency         string `json:"currency"`
	PaymentStatus    string `json:"payment_status"`
	PaymentIntentRef string `json:"payment_intent_ref,omitempty"`
}

func NewGuestHandler(service booking.GuestUseCase, gate *token.Gate, issuer *token.Issuer) *GuestHandler {
	return &GuestHandler{service: service, gate: gate, issuer: issuer}
}

func (h *GuestHandler) Register(router *gin.RouterGroup) {
	router.GET("/view", h.view)
	router.GET("/manage", h.manage)
	router.POST("/cancel", h.cancel)
	router.GET("/payment", h.payment)
}

// guestRef is the link identity triple plus the presented hash.
type guestRef struct {
	bookingID    int64
	tenantID     int64
	restaurantID int64
	hash         string
}

// authorize parses the link parameters and checks the capability. It
// answers the request itself on failure; callers stop when ok is false.
func (h *GuestHandler) authorize(c *gin.Context, required token.Action) (guestRef, bool) {
	ref, err := parseGuestRef(c)
	if err == nil {
		err = h.gate.Authorize(ref.hash, ref.bookingID, ref.tenantID, ref.restaurantID, required)
	}
	if err != nil {
		obs.GuestDenied.Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return guestRef{}, false
	}
	return ref, true
}

func parseGuestRef(c *gin.Context) (guestRef, error) {
	bookingID, err := strconv.ParseInt(c.Query("booking_id"), 10, 64)
	if err != nil {
		return guestRef{}, err
	}
	tenantID, err := strconv.ParseInt(c.Query("tenant_id"), 10, 64)
	if err != nil {
		return guestRef{}, err
	}
	restaurantID, err := strconv.ParseInt(c.Query("restaurant_id"), 10, 64)
	if err != nil {
		return guestRef{}, err
	}
	return guestRef{
		bookingID:    bookingID,
		tenantID:     tenantID,
		restaurantID: restaurantID,
		hash:         c.Query("hash"),
	}, nil
}

func (h *GuestHandler) view(c *gin.Context) {
	ref, ok := h.authorize(c, token.ActionView)
	if !ok {
		return
	}

	b, err := h.service.ViewBooking(c.Request.Context(), ref.bookingID, ref.tenantID, ref.restaurantID)
	if err != nil {
		h.renderLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGuestBooking(b))
}

func (h *GuestHandler) manage(c *gin.Context) {
	ref, ok := h.authorize(c, token.ActionManage)
	if !ok {
		return
	}

	b, err := h.service.ViewBooking(c.Request.Context(), ref.bookingID, ref.tenantID, ref.restaurantID)
	if err != nil {
		h.renderLookupError(c, err)
		return
	}

	resp := manageBookingResponse{guestBookingResponse: toGuestBooking(b)}
	if !b.Status.IsTerminal() {
		if u, err := h.issuer.ActionURL(b, token.ActionCancel); err == nil {
			resp.CancelURL = u
		}
	}
	if b.Status == domain.BookingStatusWaitingPayment {
		if u, err := h.issuer.ActionURL(b, token.ActionPayment); err == nil {
			resp.PaymentURL = u
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *GuestHandler) cancel(c *gin.Context) {
	ref, ok := h.authorize(c, token.ActionCancel)
	if !ok {
		return
	}

	b, err := h.service.CancelBooking(c.Request.Context(), ref.bookingID, ref.tenantID, ref.restaurantID)
	if err != nil {
		h.renderLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGuestBooking(b))
}

func (h *GuestHandler) payment(c *gin.Context) {
	ref, ok := h.authorize(c, token.ActionPayment)
	if !ok {
		return
	}

	b, err := h.service.ViewBooking(c.Request.Context(), ref.bookingID, ref.tenantID, ref.restaurantID)
	if err != nil {
		h.renderLookupError(c, err)
		return
	}

	resp := paymentDetailsResponse{
		BookingID:     b.ID,
		AmountCents:   b.AmountCents,
		Currency:      b.Currency,
		PaymentStatus: string(b.PaymentStatus),
	}
	if b.PaymentIntentRef != nil {
		resp.PaymentIntentRef = *b.PaymentIntentRef
	}

	c.JSON(http.StatusOK, resp)
}

// renderLookupError maps storage errors to detail-free responses. Not-found
// is only reachable with a validly derived hash for a row that no longer
// exists, so the 404 reveals nothing to callers without the signing key.
func (h *GuestHandler) renderLookupError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func toGuestBooking(b *domain.Booking) guestBookingResponse {
	return guestBookingResponse{
		BookingID:     b.ID,
		RestaurantID:  b.RestaurantID,
		GuestName:     b.GuestName,
		PartySize:     b.PartySize,
		StartsAt:      b.StartsAt.Format(time.RFC3339),
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		AmountCents:   b.AmountCents,
		Currency:      b.Currency,
	}
}
