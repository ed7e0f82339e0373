package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/billkit/backend/internal/domain/catalog"
	"github.com/billkit/backend/internal/domain/invoicing"
	"github.com/billkit/backend/internal/domain/shared"
	"github.com/billkit/backend/internal/infrastructure/persistence/models"
)

// GormBillingEventSource implements invoicing.BillingEventSource on top
// of the account, subscription and transition tables. It prices raw
// transitions through the timeline builder, acting as its own
// SubscriptionSource for bundle alignment lookups.
type GormBillingEventSource struct {
	db      *gorm.DB
	builder *invoicing.BillingEventTimelineBuilder
	logger  *zap.Logger
}

// NewGormBillingEventSource creates an event source backed by the given
// database and catalog
func NewGormBillingEventSource(db *gorm.DB, cat catalog.Catalog, logger *zap.Logger) *GormBillingEventSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	source := &GormBillingEventSource{db: db, logger: logger}
	resolver := invoicing.NewBillingAlignmentResolver(cat, source, logger)
	source.builder = invoicing.NewBillingEventTimelineBuilder(resolver, logger)
	return source
}

// Account returns the invoicing view of an account
func (s *GormBillingEventSource) Account(ctx context.Context, accountID uuid.UUID) (invoicing.Account, error) {
	var model models.AccountModel
	err := s.db.WithContext(ctx).Where("id = ?", accountID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invoicing.Account{}, shared.ErrNotFound
		}
		return invoicing.Account{}, fmt.Errorf("failed to load account %s: %w", accountID, err)
	}
	return model.ToDomain()
}

// BillingEventTimeline builds the priced event timeline for an account
// from its stored subscription transitions
func (s *GormBillingEventSource) BillingEventTimeline(ctx context.Context, accountID uuid.UUID) (*invoicing.BillingEventTimeline, error) {
	var accountModel models.AccountModel
	err := s.db.WithContext(ctx).Where("id = ?", accountID).First(&accountModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load account %s: %w", accountID, err)
	}
	account, err := accountModel.ToDomain()
	if err != nil {
		return nil, err
	}

	var subscriptionModels []models.SubscriptionModel
	err = s.db.WithContext(ctx).Where("account_id = ?", accountID).Find(&subscriptionModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions for account %s: %w", accountID, err)
	}

	subscriptions := make(map[string]invoicing.SubscriptionRef, len(subscriptionModels))
	starts := make(map[uuid.UUID]models.SubscriptionModel, len(subscriptionModels))
	subscriptionIDs := make([]uuid.UUID, 0, len(subscriptionModels))
	var suppressed []invoicing.SubscriptionRef
	for _, sub := range subscriptionModels {
		ref := sub.ToDomain()
		subscriptions[sub.ID.String()] = ref
		starts[sub.ID] = sub
		subscriptionIDs = append(subscriptionIDs, sub.ID)
		if sub.AutoInvoiceOff {
			suppressed = append(suppressed, ref)
		}
	}

	var transitionModels []models.SubscriptionTransitionModel
	if len(subscriptionIDs) > 0 {
		err = s.db.WithContext(ctx).
			Where("subscription_id IN ?", subscriptionIDs).
			Order("effective_time asc, created_at asc").
			Find(&transitionModels).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load transitions for account %s: %w", accountID, err)
		}
	}

	transitions := make([]invoicing.SubscriptionTransition, len(transitionModels))
	for i, model := range transitionModels {
		transitions[i] = model.ToDomain(starts[model.SubscriptionID].StartDate)
	}

	return s.builder.Build(account, subscriptions, transitions, accountModel.AutoInvoiceOff, suppressed)
}

// BaseSubscription returns the base subscription of a bundle
func (s *GormBillingEventSource) BaseSubscription(bundleID uuid.UUID) (*invoicing.SubscriptionRef, error) {
	var model models.SubscriptionModel
	err := s.db.Where("bundle_id = ? AND base = ?", bundleID, true).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load base subscription of bundle %s: %w", bundleID, err)
	}
	ref := model.ToDomain()
	return &ref, nil
}
