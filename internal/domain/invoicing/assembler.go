package invoicing

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billkit/backend/internal/domain/shared/service"
	"github.com/billkit/backend/internal/domain/shared/valueobject"
)

// InvoiceAssembler orchestrates one generation run: target-date
// validation and adjustment, proposed-item generation, reconciliation
// against existing invoices, and assembly of the resulting invoice.
// The computation is pure and stateless; it is safe to retry and
// idempotent per account as long as the caller serializes concurrent
// runs for the same account.
type InvoiceAssembler struct {
	clock     service.Clock
	generator *ItemGenerator
	// maxTargetDateMonths bounds how far in the future a target date may lie
	maxTargetDateMonths int
	logger              *zap.Logger
}

// NewInvoiceAssembler creates an assembler
func NewInvoiceAssembler(clock service.Clock, generator *ItemGenerator, maxTargetDateMonths int, logger *zap.Logger) *InvoiceAssembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceAssembler{
		clock:               clock,
		generator:           generator,
		maxTargetDateMonths: maxTargetDateMonths,
		logger:              logger,
	}
}

// GenerateInvoice produces the incremental invoice for the account at
// the target date, or (nil, nil) when there is nothing to invoice.
// The target date is adjusted upward to the maximum target date of any
// existing invoice before generation.
func (a *InvoiceAssembler) GenerateInvoice(accountID uuid.UUID, events *BillingEventTimeline, existingInvoices []*Invoice, targetDate valueobject.Date, currency valueobject.Currency) (*Invoice, error) {
	if events == nil || events.Len() == 0 || events.IsAccountAutoInvoiceOff() {
		return nil, nil
	}

	if err := a.validateTargetDate(targetDate); err != nil {
		return nil, err
	}
	adjustedTargetDate := adjustTargetDate(existingInvoices, targetDate)

	proposed, err := a.generator.GenerateProposedItems(accountID, events, adjustedTargetDate, currency)
	if err != nil {
		return nil, err
	}

	tree := NewAccountItemTree(accountID)
	for _, invoice := range existingInvoices {
		for _, item := range invoice.Items() {
			// Unowned items (migrations, credits, external charges) always
			// participate; items of suppressed subscriptions never do.
			if item.IsOwned() && events.IsSubscriptionAutoInvoiceOff(*item.SubscriptionID) {
				continue
			}
			tree.AddExistingItem(item)
		}
	}
	tree.MergeWithProposedItems(proposed)

	if !tree.HasDelta() {
		a.logger.Debug("account already fully invoiced",
			zap.String("account_id", accountID.String()),
			zap.String("target_date", adjustedTargetDate.String()))
		return nil, nil
	}

	invoice := NewInvoice(accountID, a.clock.UTCToday(), adjustedTargetDate, currency)
	invoice.AddItems(tree.ResultingItemList())

	a.logger.Info("assembled invoice",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("account_id", accountID.String()),
		zap.String("target_date", adjustedTargetDate.String()),
		zap.Int("item_count", len(invoice.Items())),
		zap.String("balance", invoice.Balance().String()))
	return invoice, nil
}

// validateTargetDate rejects target dates beyond the configured horizon
func (a *InvoiceAssembler) validateTargetDate(targetDate valueobject.Date) error {
	today := a.clock.UTCToday()
	if today.MonthsBetween(targetDate) > a.maxTargetDateMonths {
		return fmt.Errorf("%w: %s exceeds %d months from %s", ErrTargetDateTooFarInFuture, targetDate, a.maxTargetDateMonths, today)
	}
	return nil
}

// adjustTargetDate never invoices backward past a previously committed
// target date
func adjustTargetDate(existingInvoices []*Invoice, targetDate valueobject.Date) valueobject.Date {
	maxDate := targetDate
	for _, invoice := range existingInvoices {
		if invoice.TargetDate.After(maxDate) {
			maxDate = invoice.TargetDate
		}
	}
	return maxDate
}
