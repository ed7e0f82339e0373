package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/billkit/backend/internal/domain/invoicing"
	"github.com/billkit/backend/internal/domain/shared/valueobject"
)

// InvoiceModel is the persistence model for invoices
type InvoiceModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	AccountID   uuid.UUID `gorm:"type:uuid;not null;index"`
	InvoiceDate time.Time `gorm:"type:date;not null"`
	TargetDate  time.Time `gorm:"type:date;not null;index"`
	Currency    string    `gorm:"type:varchar(3);not null"`
	CreatedAt   time.Time `gorm:"not null"`

	Items []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName specifies the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceItemModel is the persistence model for invoice items
type InvoiceItemModel struct {
	ID             uuid.UUID        `gorm:"type:uuid;primary_key"`
	Kind           string           `gorm:"type:varchar(32);not null"`
	InvoiceID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	AccountID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	SubscriptionID *uuid.UUID       `gorm:"type:uuid;index"`
	BundleID       *uuid.UUID       `gorm:"type:uuid"`
	PlanName       string           `gorm:"type:varchar(255)"`
	PhaseName      string           `gorm:"type:varchar(255)"`
	StartDate      time.Time        `gorm:"type:date;not null"`
	EndDate        *time.Time       `gorm:"type:date"`
	Amount         decimal.Decimal  `gorm:"type:numeric(19,4);not null"`
	Rate           *decimal.Decimal `gorm:"type:numeric(19,4)"`
	Currency       string           `gorm:"type:varchar(3);not null"`
	LinkedItemID   *uuid.UUID       `gorm:"type:uuid;index"`
	CreatedAt      time.Time        `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// FromDomainInvoice populates the model from a domain invoice
func (m *InvoiceModel) FromDomainInvoice(invoice *invoicing.Invoice) {
	m.ID = invoice.ID
	m.AccountID = invoice.AccountID
	m.InvoiceDate = invoice.InvoiceDate.Time()
	m.TargetDate = invoice.TargetDate.Time()
	m.Currency = string(invoice.Currency)

	items := invoice.Items()
	m.Items = make([]InvoiceItemModel, len(items))
	for i, item := range items {
		m.Items[i].fromDomainItem(item)
	}
}

// ToDomain converts the model to a domain invoice
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	invoice := &invoicing.Invoice{
		ID:          m.ID,
		AccountID:   m.AccountID,
		InvoiceDate: valueobject.NewDateFromTime(m.InvoiceDate, nil),
		TargetDate:  valueobject.NewDateFromTime(m.TargetDate, nil),
		Currency:    valueobject.Currency(m.Currency),
	}
	items := make([]invoicing.InvoiceItem, len(m.Items))
	for i := range m.Items {
		items[i] = m.Items[i].toDomainItem()
	}
	invoice.AddItems(items)
	return invoice
}

func (m *InvoiceItemModel) fromDomainItem(item invoicing.InvoiceItem) {
	m.ID = item.ID
	m.Kind = string(item.Kind)
	m.InvoiceID = item.InvoiceID
	m.AccountID = item.AccountID
	m.SubscriptionID = item.SubscriptionID
	m.BundleID = item.BundleID
	m.PlanName = item.PlanName
	m.PhaseName = item.PhaseName
	m.StartDate = item.StartDate.Time()
	if item.EndDate != nil {
		end := item.EndDate.Time()
		m.EndDate = &end
	}
	m.Amount = item.Amount
	m.Rate = item.Rate
	m.Currency = string(item.Currency)
	m.LinkedItemID = item.LinkedItemID
}

func (m *InvoiceItemModel) toDomainItem() invoicing.InvoiceItem {
	item := invoicing.InvoiceItem{
		ID:             m.ID,
		Kind:           invoicing.ItemKind(m.Kind),
		InvoiceID:      m.InvoiceID,
		AccountID:      m.AccountID,
		SubscriptionID: m.SubscriptionID,
		BundleID:       m.BundleID,
		PlanName:       m.PlanName,
		PhaseName:      m.PhaseName,
		StartDate:      valueobject.NewDateFromTime(m.StartDate, nil),
		Amount:         m.Amount,
		Rate:           m.Rate,
		Currency:       valueobject.Currency(m.Currency),
		LinkedItemID:   m.LinkedItemID,
	}
	if m.EndDate != nil {
		end := valueobject.NewDateFromTime(*m.EndDate, nil)
		item.EndDate = &end
	}
	return item
}
