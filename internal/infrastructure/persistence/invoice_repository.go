package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/billkit/backend/internal/domain/invoicing"
	"github.com/billkit/backend/internal/infrastructure/persistence/models"
)

// GormInvoiceRepository implements invoicing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GORM invoice repository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Save persists an invoice together with its items in one transaction
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *invoicing.Invoice) error {
	var model models.InvoiceModel
	model.FromDomainInvoice(invoice)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("failed to save invoice %s: %w", invoice.ID, err)
		}
		return nil
	})
}

// FindByID returns an invoice by id, nil when absent
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find invoice %s: %w", id, err)
	}
	return model.ToDomain(), nil
}

// FindByAccountID returns all invoices for an account, oldest first
func (r *GormInvoiceRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) ([]*invoicing.Invoice, error) {
	var rows []models.InvoiceModel
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("account_id = ?", accountID).
		Order("invoice_date asc, created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices for account %s: %w", accountID, err)
	}

	invoices := make([]*invoicing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = rows[i].ToDomain()
	}
	return invoices, nil
}
