package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/billkit/backend/internal/domain/invoicing"
	"github.com/billkit/backend/internal/domain/shared/valueobject"
)

// AccountModel is the persistence model for billing accounts
type AccountModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	Name           string    `gorm:"type:varchar(255)"`
	BillCycleDay   int       `gorm:"not null;default:0"`
	TimeZone       string    `gorm:"type:varchar(64);not null;default:'UTC'"`
	Currency       string    `gorm:"type:varchar(3);not null"`
	AutoInvoiceOff bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the model to the invoicing account view
func (m *AccountModel) ToDomain() (invoicing.Account, error) {
	loc, err := time.LoadLocation(m.TimeZone)
	if err != nil {
		return invoicing.Account{}, fmt.Errorf("account %s has invalid time zone %q: %w", m.ID, m.TimeZone, err)
	}
	return invoicing.Account{
		ID:           m.ID,
		BillCycleDay: m.BillCycleDay,
		TimeZone:     loc,
		Currency:     valueobject.Currency(m.Currency),
	}, nil
}

// SubscriptionModel is the persistence model for subscriptions
type SubscriptionModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	AccountID      uuid.UUID `gorm:"type:uuid;not null;index"`
	BundleID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Base           bool      `gorm:"not null;default:false"`
	CurrentPlan    string    `gorm:"type:varchar(255)"`
	StartDate      time.Time `gorm:"not null"`
	AutoInvoiceOff bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// ToDomain converts the model to the resolver's subscription view
func (m *SubscriptionModel) ToDomain() invoicing.SubscriptionRef {
	return invoicing.SubscriptionRef{
		ID:          m.ID,
		BundleID:    m.BundleID,
		StartDate:   m.StartDate,
		CurrentPlan: m.CurrentPlan,
	}
}

// SubscriptionTransitionModel is the persistence model for subscription
// lifecycle transitions
type SubscriptionTransitionModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	SubscriptionID uuid.UUID `gorm:"type:uuid;not null;index"`
	BundleID       uuid.UUID `gorm:"type:uuid;not null"`
	TransitionType string    `gorm:"type:varchar(32);not null"`
	PreviousPlan   string    `gorm:"type:varchar(255)"`
	PreviousPhase  string    `gorm:"type:varchar(255)"`
	NextPlan       string    `gorm:"type:varchar(255)"`
	NextPhase      string    `gorm:"type:varchar(255)"`
	EffectiveTime  time.Time `gorm:"not null;index"`
	RequestedTime  time.Time `gorm:"not null"`
	PriceList      string    `gorm:"type:varchar(255)"`
	CreatedAt      time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (SubscriptionTransitionModel) TableName() string {
	return "subscription_transitions"
}

// ToDomain converts the model to a domain transition. The subscription
// start date lives on the subscription row and is filled in by the
// caller.
func (m *SubscriptionTransitionModel) ToDomain(subscriptionStart time.Time) invoicing.SubscriptionTransition {
	return invoicing.SubscriptionTransition{
		SubscriptionID:    m.SubscriptionID,
		BundleID:          m.BundleID,
		TransitionType:    invoicing.TransitionType(m.TransitionType),
		PreviousPlan:      m.PreviousPlan,
		PreviousPhase:     m.PreviousPhase,
		NextPlan:          m.NextPlan,
		NextPhase:         m.NextPhase,
		EffectiveTime:     m.EffectiveTime,
		RequestedTime:     m.RequestedTime,
		SubscriptionStart: subscriptionStart,
		NextPriceList:     m.PriceList,
	}
}
