package invoicing

import "github.com/billkit/backend/internal/domain/shared"

// Invoicing error kinds. Every one of these aborts the entire generation
// call; there is no partial invoice. A nil invoice with a nil error is
// the distinct, valid "nothing to invoice" outcome.
var (
	// ErrTargetDateTooFarInFuture signals a target date beyond the
	// configured horizon
	ErrTargetDateTooFarInFuture = shared.NewDomainError("INVOICE_TARGET_DATE_TOO_FAR_IN_FUTURE", "Target date is too far in the future")
	// ErrInvalidDateSequence signals a billing segment whose end date
	// precedes its start date
	ErrInvalidDateSequence = shared.NewDomainError("INVOICE_INVALID_DATE_SEQUENCE", "Invalid date sequence for billing segment")
	// ErrUnsupportedBillingMode signals a billing mode with no registered
	// strategy; a configuration error, never retried
	ErrUnsupportedBillingMode = shared.NewDomainError("INVOICE_UNSUPPORTED_BILLING_MODE", "No strategy registered for billing mode")
	// ErrInvalidBillingAlignment signals an alignment policy that failed
	// to produce a usable bill cycle day
	ErrInvalidBillingAlignment = shared.NewDomainError("CAT_INVALID_BILLING_ALIGNMENT", "Billing alignment did not resolve to a bill cycle day")
)
