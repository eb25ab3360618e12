package repository

import (
	"context"
	"time"

	"github.com/wiseroute/transport-booking/internal/models"
	"gorm.io/gorm"
)

// InvoiceFilter narrows admin listing queries.
type InvoiceFilter struct {
	Status    models.InvoiceStatus
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
}

type InvoiceRepository interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Create(ctx context.Context, tx *gorm.DB, invoice *models.Invoice) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Invoice, error)
	FindByIDForStudent(ctx context.Context, tx *gorm.DB, id uint, studentID string) (*models.Invoice, error)
	// UpdateStatusIf performs the conditional transition: the row moves only
	// if it still holds the expected status. Reports whether it moved.
	UpdateStatusIf(ctx context.Context, tx *gorm.DB, id uint, from, to models.InvoiceStatus, updates map[string]any) (bool, error)
	FindDueIDs(ctx context.Context, now time.Time) ([]uint, error)
	List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error)
	CountByStatus(ctx context.Context, status models.InvoiceStatus) (int64, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	SumAmountByStatus(ctx context.Context, status models.InvoiceStatus) (float64, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) orDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *invoiceRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *invoiceRepository) Create(ctx context.Context, tx *gorm.DB, invoice *models.Invoice) error {
	return r.orDB(tx).WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.orDB(tx).WithContext(ctx).First(&invoice, id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDForStudent(ctx context.Context, tx *gorm.DB, id uint, studentID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.orDB(tx).WithContext(ctx).
		Where("id = ? AND student_id = ?", id, studentID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) UpdateStatusIf(ctx context.Context, tx *gorm.DB, id uint, from, to models.InvoiceStatus, updates map[string]any) (bool, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to

	res := r.orDB(tx).WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *invoiceRepository) FindDueIDs(ctx context.Context, now time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("status = ? AND due_at <= ?", models.InvoiceActive, now).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error) {
	q := r.db.WithContext(ctx).Model(&models.Invoice{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		q = q.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("created_at < ?", *filter.EndDate)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("invoice_number ILIKE ? OR student_id ILIKE ?", like, like)
	}

	var invoices []models.Invoice
	if err := q.Order("created_at DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) CountByStatus(ctx context.Context, status models.InvoiceStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *invoiceRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&count).Error
	return count, err
}

func (r *invoiceRepository) SumAmountByStatus(ctx context.Context, status models.InvoiceStatus) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("status = ?", status).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
