// Package invoicing implements the invoice generation and reconciliation
// engine for subscription accounts.
//
// The engine is a pure computation: given a chronological timeline of
// billing events, the set of previously issued invoices, a target date
// and a currency, it produces the minimal set of invoice items needed to
// bring the account's billed state up to date - or nothing when the
// account is already consistent.
//
// Key components:
//   - BillingEvent / BillingEventTimeline: ordered per-account billing
//     events with auto-invoicing suppression flags
//   - BillingAlignmentResolver: computes the effective bill cycle day for
//     a subscription transition
//   - BillingModeStrategy registry: pluggable proration algorithms that
//     split a billing segment into charge cycles
//   - ItemGenerator: recomputes all proposed charges from the beginning
//     of time through the target date
//   - AccountItemTree: reconciles proposed charges against previously
//     issued items, emitting only the delta (new items plus negative
//     repair items)
//   - InvoiceAssembler: orchestrates validation, generation and
//     reconciliation into an immutable Invoice
//
// The engine holds no state across calls and provides no internal
// locking; concurrent generations for the same account must be
// serialized by the caller.
package invoicing
