package invoicing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billkit/backend/internal/domain/invoicing"
	"github.com/billkit/backend/internal/domain/shared"
	"github.com/billkit/backend/internal/domain/shared/valueobject"
)

// AccountLocker serializes invoice generation per account. Two
// concurrent runs for the same account would both compute a delta
// against the same existing items and double-bill.
type AccountLocker interface {
	// Lock acquires the account lock, returning the release function
	Lock(ctx context.Context, accountID uuid.UUID) (func(), error)
}

// InvoiceService drives invoice generation end to end: lock the
// account, load its timeline and existing invoices, run the assembler
// and persist the result
type InvoiceService struct {
	events    invoicing.BillingEventSource
	invoices  invoicing.InvoiceRepository
	assembler *invoicing.InvoiceAssembler
	locker    AccountLocker
	logger    *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	events invoicing.BillingEventSource,
	invoices invoicing.InvoiceRepository,
	assembler *invoicing.InvoiceAssembler,
	locker AccountLocker,
	logger *zap.Logger,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		events:    events,
		invoices:  invoices,
		assembler: assembler,
		locker:    locker,
		logger:    logger,
	}
}

// GenerateInvoiceRequest represents a request to generate an invoice
type GenerateInvoiceRequest struct {
	AccountID  uuid.UUID
	TargetDate valueobject.Date
	// DryRun computes the invoice without persisting it
	DryRun bool
}

// GenerateInvoice runs one generation pass for the account. A nil
// result with a nil error means there was nothing to invoice.
func (s *InvoiceService) GenerateInvoice(ctx context.Context, req GenerateInvoiceRequest) (*invoicing.Invoice, error) {
	if req.AccountID == uuid.Nil {
		return nil, shared.NewDomainError("INVOICE_INVALID_ACCOUNT", "Account id is required")
	}
	if req.TargetDate.IsZero() {
		return nil, shared.NewDomainError("INVOICE_INVALID_TARGET_DATE", "Target date is required")
	}

	unlock, err := s.locker.Lock(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %s: %w", req.AccountID, err)
	}
	defer unlock()

	account, err := s.events.Account(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	timeline, err := s.events.BillingEventTimeline(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load billing events: %w", err)
	}

	existing, err := s.invoices.FindByAccountID(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing invoices: %w", err)
	}

	invoice, err := s.assembler.GenerateInvoice(req.AccountID, timeline, existing, req.TargetDate, account.Currency)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		s.logger.Info("nothing to invoice",
			zap.String("account_id", req.AccountID.String()),
			zap.String("target_date", req.TargetDate.String()))
		return nil, nil
	}

	if req.DryRun {
		s.logger.Info("dry run, invoice not persisted",
			zap.String("account_id", req.AccountID.String()),
			zap.String("invoice_id", invoice.ID.String()))
		return invoice, nil
	}

	if err := s.invoices.Save(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	s.logger.Info("invoice generated",
		zap.String("account_id", req.AccountID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("balance", invoice.Balance().String()))
	return invoice, nil
}

// GetInvoice returns an invoice by id
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return nil, shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
	}
	return invoice, nil
}

// ListInvoices returns all invoices of an account
func (s *InvoiceService) ListInvoices(ctx context.Context, accountID uuid.UUID) ([]*invoicing.Invoice, error) {
	invoices, err := s.invoices.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}
