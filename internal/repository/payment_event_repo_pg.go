package repository

import (
	"context"

	"github.com/Domenick1991/restobooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentEventRepository interface {
	// Admit records the event and reports whether this caller is the first.
	// The insert-if-absent on event_id is the only admission check: two
	// concurrent deliveries of the same event cannot both get true.
	Admit(ctx context.Context, event *domain.PaymentEvent) (bool, error)
}

type PGPaymentEventRepository struct {
	db *pgxpool.Pool
}

func NewPaymentEventRepository(db *pgxpool.Pool) PaymentEventRepository {
	return &PGPaymentEventRepository{db: db}
}

func (r *PGPaymentEventRepository) Admit(ctx context.Context, event *domain.PaymentEvent) (bool, error) {
	cmd, err := r.db.Exec(ctx, `INSERT INTO payment_events
		(event_id, event_type, payment_intent_ref, amount_cents, currency, booking_id, tenant_id, restaurant_id, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (event_id) DO NOTHING`,
		event.EventID, event.Type, event.PaymentIntentRef, event.AmountCents, event.Currency,
		event.BookingID, event.TenantID, event.RestaurantID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

var _ PaymentEventRepository = (*PGPaymentEventRepository)(nil)
