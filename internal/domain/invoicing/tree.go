package invoicing

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/billkit/backend/internal/domain/shared/valueobject"
)

// AccountItemTree reconciles the complete recomputation of an account's
// charges (proposed items) against everything previously issued
// (existing items), producing only the delta: new positive items plus
// negative repair items. Running the merge again with that delta folded
// into the existing side yields an empty delta.
//
// Unowned existing items (nil subscription id) are pinned: they pass
// through into the resulting list untouched and are never repaired.
type AccountItemTree struct {
	accountID     uuid.UUID
	subscriptions map[uuid.UUID]*subscriptionItemTree
	order         []uuid.UUID
	pinned        []InvoiceItem
	delta         []InvoiceItem
	merged        bool
}

// NewAccountItemTree creates an empty tree for an account
func NewAccountItemTree(accountID uuid.UUID) *AccountItemTree {
	return &AccountItemTree{
		accountID:     accountID,
		subscriptions: make(map[uuid.UUID]*subscriptionItemTree),
	}
}

// AddExistingItem registers one previously issued item. Must be called
// before MergeWithProposedItems.
func (t *AccountItemTree) AddExistingItem(item InvoiceItem) {
	if !item.IsOwned() {
		t.pinned = append(t.pinned, item)
		return
	}
	t.subscriptionTree(*item.SubscriptionID).addExisting(item)
}

// MergeWithProposedItems reconciles the proposed items against the
// registered existing items
func (t *AccountItemTree) MergeWithProposedItems(proposed []InvoiceItem) {
	for _, item := range proposed {
		if !item.IsOwned() {
			// The generator never proposes unowned items; keep one anyway
			// rather than lose a charge.
			t.delta = append(t.delta, item)
			continue
		}
		t.subscriptionTree(*item.SubscriptionID).addProposed(item)
	}
	for _, id := range t.order {
		t.delta = append(t.delta, t.subscriptions[id].reconcile()...)
	}
	t.merged = true
}

// HasDelta returns true when reconciliation produced at least one new
// or repair item. Pinned pass-through items alone do not count.
func (t *AccountItemTree) HasDelta() bool {
	return len(t.delta) > 0
}

// ResultingItemList returns the reconciled delta plus the pinned
// unowned items, or nil before merging
func (t *AccountItemTree) ResultingItemList() []InvoiceItem {
	if !t.merged {
		return nil
	}
	result := make([]InvoiceItem, 0, len(t.delta)+len(t.pinned))
	result = append(result, t.delta...)
	result = append(result, t.pinned...)
	return result
}

func (t *AccountItemTree) subscriptionTree(subscriptionID uuid.UUID) *subscriptionItemTree {
	sub, ok := t.subscriptions[subscriptionID]
	if !ok {
		sub = &subscriptionItemTree{subscriptionID: subscriptionID}
		t.subscriptions[subscriptionID] = sub
		t.order = append(t.order, subscriptionID)
	}
	return sub
}

// itemHandle addresses an item within a subscription tree's arena.
// Handles stay valid across arena growth; raw pointers into the arena
// must never be held across an append.
type itemHandle int

// reconItem is a working copy of an invoice item inside the arena.
// Netting may shrink its range or amount; the ID always remains the
// originally issued item's, so repairs link correctly.
type reconItem struct {
	item     InvoiceItem
	consumed bool
}

// subscriptionItemTree diffs one subscription's existing and proposed
// items. All items live in a single arena slice addressed by handle.
type subscriptionItemTree struct {
	subscriptionID uuid.UUID
	arena          []reconItem
	existing       []itemHandle
	proposed       []itemHandle
}

func (s *subscriptionItemTree) addExisting(item InvoiceItem) {
	s.existing = append(s.existing, s.alloc(item))
}

func (s *subscriptionItemTree) addProposed(item InvoiceItem) {
	s.proposed = append(s.proposed, s.alloc(item))
}

func (s *subscriptionItemTree) alloc(item InvoiceItem) itemHandle {
	s.arena = append(s.arena, reconItem{item: item})
	return itemHandle(len(s.arena) - 1)
}

// reconcile nets previously issued repairs into their targets, then
// diffs the surviving existing coverage against the proposed items
func (s *subscriptionItemTree) reconcile() []InvoiceItem {
	s.netExistingRepairs()

	existing := s.aliveSorted(s.existing)
	proposed := s.aliveSorted(s.proposed)

	var delta []InvoiceItem
	i, j := 0, 0
	for i < len(existing) && j < len(proposed) {
		e := s.arena[existing[i]].item
		p := s.arena[proposed[j]].item

		if e.Matches(p) {
			i++
			j++
			continue
		}

		if e.Kind == ItemKindRecurring && p.Kind == ItemKindRecurring &&
			e.EndDate != nil && p.EndDate != nil && e.StartDate.Equal(p.StartDate) {
			delta = append(delta, s.diffSameStart(e, p)...)
			i++
			j++
			continue
		}

		if compareItems(e, p) < 0 {
			// Existing coverage with no proposed counterpart: stale.
			delta = append(delta, fullRepair(e))
			i++
		} else {
			delta = append(delta, p)
			j++
		}
	}
	for ; i < len(existing); i++ {
		delta = append(delta, fullRepair(s.arena[existing[i]].item))
	}
	for ; j < len(proposed); j++ {
		delta = append(delta, s.arena[proposed[j]].item)
	}
	return delta
}

// diffSameStart handles two recurring items covering ranges with the
// same start date but differing end dates or amounts
func (s *subscriptionItemTree) diffSameStart(e, p InvoiceItem) []InvoiceItem {
	switch {
	case e.EndDate.Equal(*p.EndDate):
		// Same range, changed amount: replace outright.
		return []InvoiceItem{fullRepair(e), p}

	case p.EndDate.Before(*e.EndDate):
		// Proposed coverage is shorter (cancellation or early change).
		// When the kept head matches the proposed amount, a single repair
		// cancelling the unused tail is enough; the head stays billed.
		head := prorateShare(e.Amount, e.StartDate, *e.EndDate, e.StartDate, *p.EndDate, e.Currency)
		if head.Equal(p.Amount) {
			return []InvoiceItem{NewRepairItem(e, *p.EndDate, e.EndDate, p.Amount.Sub(e.Amount))}
		}
		return []InvoiceItem{fullRepair(e), p}

	default:
		// Proposed coverage extends past the existing range. When the
		// existing amount matches the proposed head, only the extension
		// is new.
		head := prorateShare(p.Amount, p.StartDate, *p.EndDate, p.StartDate, *e.EndDate, p.Currency)
		if head.Equal(e.Amount) && p.Rate != nil {
			tail := NewRecurringItem(p.AccountID, deref(p.BundleID), deref(p.SubscriptionID),
				p.PlanName, p.PhaseName, *e.EndDate, *p.EndDate, p.Amount.Sub(e.Amount), *p.Rate, p.Currency)
			return []InvoiceItem{tail}
		}
		return []InvoiceItem{fullRepair(e), p}
	}
}

// netExistingRepairs folds previously issued negative items into the
// positive items they correct, leaving only net positive coverage on
// the existing side. A ranged repair applies to the first positive item
// whose range contains it; dated repairs apply to a dated item on the
// same date.
func (s *subscriptionItemTree) netExistingRepairs() {
	for idx := 0; idx < len(s.existing); idx++ {
		nh := s.existing[idx]
		if s.arena[nh].consumed || !s.arena[nh].item.Amount.IsNegative() {
			continue
		}
		neg := s.arena[nh].item
		for _, ph := range s.existing {
			if ph == nh || s.arena[ph].consumed || !s.arena[ph].item.Amount.IsPositive() {
				continue
			}
			pos := s.arena[ph].item
			if neg.EndDate != nil {
				if pos.EndDate == nil || pos.StartDate.After(neg.StartDate) || pos.EndDate.Before(*neg.EndDate) {
					continue
				}
				s.applyRangedRepair(ph, nh)
			} else {
				if pos.EndDate != nil || !pos.StartDate.Equal(neg.StartDate) {
					continue
				}
				s.applyDatedRepair(ph, nh)
			}
			break
		}
	}
}

// applyRangedRepair shrinks the positive item at ph by the repair at nh
func (s *subscriptionItemTree) applyRangedRepair(ph, nh itemHandle) {
	pos := s.arena[ph].item
	neg := s.arena[nh].item
	net := pos.Amount.Add(neg.Amount)

	sameStart := pos.StartDate.Equal(neg.StartDate)
	sameEnd := pos.EndDate.Equal(*neg.EndDate)

	switch {
	case sameStart && sameEnd:
		if net.IsZero() {
			s.arena[ph].consumed = true
		} else {
			s.arena[ph].item.Amount = net
		}

	case sameEnd:
		// Tail repair: the head of the range stays billed.
		end := neg.StartDate
		s.arena[ph].item.EndDate = &end
		s.arena[ph].item.Amount = net
		if net.IsZero() {
			s.arena[ph].consumed = true
		}

	case sameStart:
		start := *neg.EndDate
		s.arena[ph].item.StartDate = start
		s.arena[ph].item.Amount = net
		if net.IsZero() {
			s.arena[ph].consumed = true
		}

	default:
		// Middle repair: split into head and tail fragments sharing the
		// original item id.
		headAmount := prorateShare(pos.Amount, pos.StartDate, *pos.EndDate, pos.StartDate, neg.StartDate, pos.Currency)
		tailAmount := net.Sub(headAmount)
		tail := pos
		tailStart := *neg.EndDate
		tail.StartDate = tailStart
		tail.Amount = tailAmount
		th := s.alloc(tail)
		s.existing = append(s.existing, th)
		headEnd := neg.StartDate
		s.arena[ph].item.EndDate = &headEnd
		s.arena[ph].item.Amount = headAmount
	}

	s.arena[nh].consumed = true
}

// applyDatedRepair nets a dated repair against a dated charge
func (s *subscriptionItemTree) applyDatedRepair(ph, nh itemHandle) {
	net := s.arena[ph].item.Amount.Add(s.arena[nh].item.Amount)
	if net.IsZero() {
		s.arena[ph].consumed = true
	} else {
		s.arena[ph].item.Amount = net
	}
	s.arena[nh].consumed = true
}

// aliveSorted returns the unconsumed handles sorted by date range
func (s *subscriptionItemTree) aliveSorted(handles []itemHandle) []itemHandle {
	alive := make([]itemHandle, 0, len(handles))
	for _, h := range handles {
		if !s.arena[h].consumed {
			alive = append(alive, h)
		}
	}
	sort.SliceStable(alive, func(a, b int) bool {
		return compareItems(s.arena[alive[a]].item, s.arena[alive[b]].item) < 0
	})
	return alive
}

// compareItems orders items by start date, end date, then kind so the
// diff walk sees both sides in the same sequence
func compareItems(a, b InvoiceItem) int {
	if c := a.StartDate.Compare(b.StartDate); c != 0 {
		return c
	}
	aEnd := endOrStart(a)
	bEnd := endOrStart(b)
	if c := aEnd.Compare(bEnd); c != 0 {
		return c
	}
	if ra, rb := kindRank(a.Kind), kindRank(b.Kind); ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	return a.Amount.Cmp(b.Amount)
}

func endOrStart(item InvoiceItem) valueobject.Date {
	if item.EndDate != nil {
		return *item.EndDate
	}
	return item.StartDate
}

func kindRank(k ItemKind) int {
	switch k {
	case ItemKindFixed:
		return 0
	case ItemKindExternalCharge:
		return 1
	case ItemKindRecurring:
		return 2
	default:
		return 3
	}
}

// fullRepair negates an entire existing item
func fullRepair(e InvoiceItem) InvoiceItem {
	return NewRepairItem(e, e.StartDate, e.EndDate, e.Amount.Neg())
}

// prorateShare returns the part of amount covering [partStart, partEnd)
// out of the full range [fullStart, fullEnd), day-granular, rounded to
// the currency's minor units
func prorateShare(amount decimal.Decimal, fullStart, fullEnd, partStart, partEnd valueobject.Date, currency valueobject.Currency) decimal.Decimal {
	fullDays := fullStart.DaysBetween(fullEnd)
	partDays := partStart.DaysBetween(partEnd)
	if fullDays <= 0 || partDays <= 0 {
		return decimal.Zero
	}
	share := amount.Mul(decimal.NewFromInt(int64(partDays))).Div(decimal.NewFromInt(int64(fullDays)))
	return valueobject.RoundToCurrency(share, currency)
}

func deref(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
