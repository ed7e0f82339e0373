package invoicing

import (
	"context"

	"github.com/google/uuid"
)

// InvoiceRepository persists assembled invoices and their items
type InvoiceRepository interface {
	// Save persists an invoice with all of its items
	Save(ctx context.Context, invoice *Invoice) error
	// FindByID returns an invoice by id, nil when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindByAccountID returns all invoices of an account, newest first
	FindByAccountID(ctx context.Context, accountID uuid.UUID) ([]*Invoice, error)
}

// BillingEventSource supplies the account state and billing event
// timeline the generation run consumes. Implemented by the entitlement
// collaborator.
type BillingEventSource interface {
	// Account returns the account's billing attributes
	Account(ctx context.Context, accountID uuid.UUID) (Account, error)
	// BillingEventTimeline returns the account's complete ordered event
	// timeline
	BillingEventTimeline(ctx context.Context, accountID uuid.UUID) (*BillingEventTimeline, error)
}
