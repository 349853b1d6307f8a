package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/restobooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a booking does not exist or a conditional
// update matched no row.
var ErrNotFound = errors.New("not found")

type BookingRepository interface {
	GetByRef(ctx context.Context, bookingID, tenantID, restaurantID int64) (*domain.Booking, error)
	GetByID(ctx context.Context, bookingID int64) (*domain.Booking, error)
	// ConfirmPayment performs the waiting_payment -> confirmed transition as a
	// single conditional update; status and payment fields change together or
	// not at all. ErrNotFound means the booking was not in waiting_payment.
	ConfirmPayment(ctx context.Context, bookingID int64, intentRef string, paidAt time.Time) (*domain.Booking, error)
	// MarkPaymentFailed retains a failed attempt on a booking still awaiting
	// payment; status stays waiting_payment so the guest can retry. Same
	// conditional discipline as ConfirmPayment: ErrNotFound means the booking
	// already left waiting_payment, and the caller reclassifies.
	MarkPaymentFailed(ctx context.Context, bookingID int64) (*domain.Booking, error)
	// RecordPaymentForReview stores the payment reference on a booking that can
	// no longer be confirmed (e.g. cancelled before the event arrived) and
	// flags it for manual review. Statuses are left untouched.
	RecordPaymentForReview(ctx context.Context, bookingID int64, intentRef string, paidAt time.Time) (*domain.Booking, error)
	// Cancel moves a non-terminal booking to cancelled. Conditional on the
	// current status, so a concurrent confirm cannot be overwritten blindly.
	Cancel(ctx context.Context, bookingID int64) (*domain.Booking, error)
	// FindWaitingPaymentBefore lists bookings stuck awaiting payment since
	// before the deadline, for the reminder sweep.
	FindWaitingPaymentBefore(ctx context.Context, deadline time.Time, limit int) ([]domain.Booking, error)
}

const bookingColumns = `id, tenant_id, restaurant_id, guest_name, guest_email, party_size, starts_at,
	status, payment_status, payment_intent_ref, payment_paid_at, amount_cents, currency, needs_review,
	created_at, updated_at`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) GetByRef(ctx context.Context, bookingID, tenantID, restaurantID int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id=$1 AND tenant_id=$2 AND restaurant_id=$3`,
		bookingID, tenantID, restaurantID)
	return scanBooking(row)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, bookingID)
	return scanBooking(row)
}

func (r *PGBookingRepository) ConfirmPayment(ctx context.Context, bookingID int64, intentRef string, paidAt time.Time) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings
		SET status=$2, payment_status=$3, payment_intent_ref=$4, payment_paid_at=$5, updated_at=now()
		WHERE id=$1 AND status=$6
		RETURNING `+bookingColumns,
		bookingID, domain.BookingStatusConfirmed, domain.PaymentStatusPaid, intentRef, paidAt,
		domain.BookingStatusWaitingPayment)
	return scanBooking(row)
}

func (r *PGBookingRepository) MarkPaymentFailed(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings
		SET payment_status=$2, updated_at=now()
		WHERE id=$1 AND status=$3
		RETURNING `+bookingColumns,
		bookingID, domain.PaymentStatusFailed, domain.BookingStatusWaitingPayment)
	return scanBooking(row)
}

func (r *PGBookingRepository) RecordPaymentForReview(ctx context.Context, bookingID int64, intentRef string, paidAt time.Time) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings
		SET payment_intent_ref=$2, payment_paid_at=$3, needs_review=true, updated_at=now()
		WHERE id=$1
		RETURNING `+bookingColumns,
		bookingID, intentRef, paidAt)
	return scanBooking(row)
}

func (r *PGBookingRepository) Cancel(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings
		SET status=$2, updated_at=now()
		WHERE id=$1 AND status NOT IN ($2, $3)
		RETURNING `+bookingColumns,
		bookingID, domain.BookingStatusCancelled, domain.BookingStatusCompleted)
	return scanBooking(row)
}

func (r *PGBookingRepository) FindWaitingPaymentBefore(ctx context.Context, deadline time.Time, limit int) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE status=$1 AND updated_at < $2 ORDER BY updated_at LIMIT $3`,
		domain.BookingStatusWaitingPayment, deadline, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stuck []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		stuck = append(stuck, *b)
	}
	return stuck, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.TenantID, &b.RestaurantID, &b.GuestName, &b.GuestEmail, &b.PartySize,
		&b.StartsAt, &b.Status, &b.PaymentStatus, &b.PaymentIntentRef, &b.PaymentPaidAt,
		&b.AmountCents, &b.Currency, &b.NeedsReview, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
