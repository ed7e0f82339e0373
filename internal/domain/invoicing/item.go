package invoicing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/billkit/backend/internal/domain/shared/valueobject"
)

// ItemKind is the closed set of invoice item variants. Reconciliation
// matches exhaustively over kinds; adding a kind means revisiting every
// switch on ItemKind.
type ItemKind string

const (
	// ItemKindFixed is a one-time fixed-price charge on a single date
	ItemKindFixed ItemKind = "FIXED"
	// ItemKindRecurring is a recurring charge over a service period
	ItemKindRecurring ItemKind = "RECURRING"
	// ItemKindRepair is a negative adjustment cancelling a previously
	// issued charge for a range no longer valid
	ItemKindRepair ItemKind = "REPAIR_ADJ"
	// ItemKindExternalCharge is an unowned charge injected from outside
	// the engine (migration, credit, external charge); reconciliation
	// passes it through untouched
	ItemKindExternalCharge ItemKind = "EXTERNAL_CHARGE"
)

// InvoiceItem is one line of an invoice. Items are immutable once part
// of an assembled invoice; reconciliation corrects previously issued
// ranges by emitting new repair items, never by mutating old ones.
type InvoiceItem struct {
	ID             uuid.UUID
	Kind           ItemKind
	InvoiceID      uuid.UUID
	AccountID      uuid.UUID
	SubscriptionID *uuid.UUID
	BundleID       *uuid.UUID
	PlanName       string
	PhaseName      string
	// StartDate is the item's single date for dated kinds (fixed,
	// external charge) and the service period start for ranged kinds
	StartDate valueobject.Date
	// EndDate is nil for dated kinds
	EndDate  *valueobject.Date
	Amount   decimal.Decimal
	Rate     *decimal.Decimal
	Currency valueobject.Currency
	// LinkedItemID points a repair at the item it corrects
	LinkedItemID *uuid.UUID
}

// NewFixedPriceItem creates a fixed-price invoice item
func NewFixedPriceItem(accountID, bundleID, subscriptionID uuid.UUID, planName, phaseName string, date valueobject.Date, amount decimal.Decimal, currency valueobject.Currency) InvoiceItem {
	return InvoiceItem{
		ID:             uuid.New(),
		Kind:           ItemKindFixed,
		AccountID:      accountID,
		SubscriptionID: &subscriptionID,
		BundleID:       &bundleID,
		PlanName:       planName,
		PhaseName:      phaseName,
		StartDate:      date,
		Amount:         valueobject.RoundToCurrency(amount, currency),
		Currency:       currency,
	}
}

// NewRecurringItem creates a recurring invoice item covering
// [startDate, endDate)
func NewRecurringItem(accountID, bundleID, subscriptionID uuid.UUID, planName, phaseName string, startDate, endDate valueobject.Date, amount, rate decimal.Decimal, currency valueobject.Currency) InvoiceItem {
	end := endDate
	return InvoiceItem{
		ID:             uuid.New(),
		Kind:           ItemKindRecurring,
		AccountID:      accountID,
		SubscriptionID: &subscriptionID,
		BundleID:       &bundleID,
		PlanName:       planName,
		PhaseName:      phaseName,
		StartDate:      startDate,
		EndDate:        &end,
		Amount:         valueobject.RoundToCurrency(amount, currency),
		Rate:           &rate,
		Currency:       currency,
	}
}

// NewRepairItem creates a negative adjustment cancelling part or all of
// a previously issued item. The amount must be negative; endDate is nil
// when repairing a dated item.
func NewRepairItem(repaired InvoiceItem, startDate valueobject.Date, endDate *valueobject.Date, amount decimal.Decimal) InvoiceItem {
	linked := repaired.ID
	var end *valueobject.Date
	if endDate != nil {
		e := *endDate
		end = &e
	}
	return InvoiceItem{
		ID:             uuid.New(),
		Kind:           ItemKindRepair,
		AccountID:      repaired.AccountID,
		SubscriptionID: repaired.SubscriptionID,
		BundleID:       repaired.BundleID,
		PlanName:       repaired.PlanName,
		PhaseName:      repaired.PhaseName,
		StartDate:      startDate,
		EndDate:        end,
		Amount:         valueobject.RoundToCurrency(amount, repaired.Currency),
		Currency:       repaired.Currency,
		LinkedItemID:   &linked,
	}
}

// NewExternalChargeItem creates an unowned charge (no subscription id)
func NewExternalChargeItem(accountID uuid.UUID, description string, date valueobject.Date, amount decimal.Decimal, currency valueobject.Currency) InvoiceItem {
	return InvoiceItem{
		ID:        uuid.New(),
		Kind:      ItemKindExternalCharge,
		AccountID: accountID,
		PlanName:  description,
		StartDate: date,
		Amount:    valueobject.RoundToCurrency(amount, currency),
		Currency:  currency,
	}
}

// IsOwned returns true when the item belongs to a subscription.
// Unowned items are pinned: reconciliation never cancels them.
func (i InvoiceItem) IsOwned() bool {
	return i.SubscriptionID != nil
}

// Matches returns true when other covers the same subscription, kind,
// date range and amount - the "already billed, nothing to do" test
func (i InvoiceItem) Matches(other InvoiceItem) bool {
	if i.Kind != other.Kind || i.Currency != other.Currency {
		return false
	}
	if (i.SubscriptionID == nil) != (other.SubscriptionID == nil) {
		return false
	}
	if i.SubscriptionID != nil && *i.SubscriptionID != *other.SubscriptionID {
		return false
	}
	if !i.StartDate.Equal(other.StartDate) {
		return false
	}
	if (i.EndDate == nil) != (other.EndDate == nil) {
		return false
	}
	if i.EndDate != nil && !i.EndDate.Equal(*other.EndDate) {
		return false
	}
	return i.Amount.Equal(other.Amount)
}

// String is used in diagnostic traces
func (i InvoiceItem) String() string {
	end := "-"
	if i.EndDate != nil {
		end = i.EndDate.String()
	}
	return fmt.Sprintf("InvoiceItem[kind=%s plan=%s phase=%s start=%s end=%s amount=%s %s]",
		i.Kind, i.PlanName, i.PhaseName, i.StartDate, end, i.Amount, i.Currency)
}

// Invoice is an immutable set of invoice items produced by one
// generation run. It is created only when at least one proposed item
// survives reconciliation.
type Invoice struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	InvoiceDate valueobject.Date
	TargetDate  valueobject.Date
	Currency    valueobject.Currency

	items []InvoiceItem
}

// NewInvoice creates an empty invoice shell
func NewInvoice(accountID uuid.UUID, invoiceDate, targetDate valueobject.Date, currency valueobject.Currency) *Invoice {
	return &Invoice{
		ID:          uuid.New(),
		AccountID:   accountID,
		InvoiceDate: invoiceDate,
		TargetDate:  targetDate,
		Currency:    currency,
	}
}

// AddItems appends items to the invoice, stamping them with the
// invoice id
func (inv *Invoice) AddItems(items []InvoiceItem) {
	for _, item := range items {
		item.InvoiceID = inv.ID
		inv.items = append(inv.items, item)
	}
}

// Items returns a copy of the invoice's items
func (inv *Invoice) Items() []InvoiceItem {
	items := make([]InvoiceItem, len(inv.items))
	copy(items, inv.items)
	return items
}

// Balance returns the sum of all item amounts
func (inv *Invoice) Balance() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.items {
		total = total.Add(item.Amount)
	}
	return total
}
