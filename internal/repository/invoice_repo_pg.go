package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/restobooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InvoiceRepository interface {
	// Record inserts the invoice unless one already exists for the same
	// (booking, payment reference) pair. Returns false without error on the
	// duplicate; re-running a payment path must not mint a second invoice.
	Record(ctx context.Context, invoice *domain.Invoice) (bool, error)
	GetByPayment(ctx context.Context, bookingID int64, intentRef string) (*domain.Invoice, error)
}

type PGInvoiceRepository struct {
	db *pgxpool.Pool
}

func NewInvoiceRepository(db *pgxpool.Pool) InvoiceRepository {
	return &PGInvoiceRepository{db: db}
}

func (r *PGInvoiceRepository) Record(ctx context.Context, invoice *domain.Invoice) (bool, error) {
	cmd, err := r.db.Exec(ctx, `INSERT INTO invoices
		(invoice_number, booking_id, payment_intent_ref, amount_cents, currency, status, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (booking_id, payment_intent_ref) DO NOTHING`,
		invoice.InvoiceNumber, invoice.BookingID, invoice.PaymentIntentRef,
		invoice.AmountCents, invoice.Currency, invoice.Status, invoice.PaidAt)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *PGInvoiceRepository) GetByPayment(ctx context.Context, bookingID int64, intentRef string) (*domain.Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT invoice_number, booking_id, payment_intent_ref, amount_cents, currency, status, paid_at, created_at
		FROM invoices WHERE booking_id=$1 AND payment_intent_ref=$2`,
		bookingID, intentRef)

	var inv domain.Invoice
	err := row.Scan(&inv.InvoiceNumber, &inv.BookingID, &inv.PaymentIntentRef,
		&inv.AmountCents, &inv.Currency, &inv.Status, &inv.PaidAt, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

var _ InvoiceRepository = (*PGInvoiceRepository)(nil)
