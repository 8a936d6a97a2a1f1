package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/pagination"
)

// Repository persists the order aggregate.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the order together with its lines, delivery and payment.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads the full aggregate.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.aggregate(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByPaymentReference loads the order whose payment carries the gateway reference.
func (r *Repository) FindByPaymentReference(ctx context.Context, reference string) (*models.Order, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("gateway_reference = ?", reference).First(&payment).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, payment.OrderID)
}

// CompareAndSwapStatus moves the order to status only if its version is unchanged,
// bumping the version. It reports false when another writer got there first.
func (r *Repository) CompareAndSwapStatus(ctx context.Context, id uuid.UUID, version int, status enums.OrderStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]any{
			"status":     status,
			"version":    gorm.Expr("version + 1"),
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateDeliveryStatus sets the delivery status. stamp names a date column that is
// written only while still NULL.
func (r *Repository) UpdateDeliveryStatus(ctx context.Context, orderID uuid.UUID, status enums.DeliveryStatus, stamp string, at time.Time) error {
	updates := map[string]any{"status": status, "updated_at": at}
	switch stamp {
	case "shipped_date":
		updates["shipped_date"] = gorm.Expr("COALESCE(shipped_date, ?)", at)
	case "delivered_date":
		updates["delivered_date"] = gorm.Expr("COALESCE(delivered_date, ?)", at)
	}
	return r.db.WithContext(ctx).Model(&models.Delivery{}).Where("order_id = ?", orderID).Updates(updates).Error
}

// CompletePayment marks the payment completed; payment_date is written once.
func (r *Repository) CompletePayment(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"status":         enums.PaymentStatusCompleted,
			"payment_date":   gorm.Expr("COALESCE(payment_date, ?)", at),
			"failure_reason": nil,
			"updated_at":     at,
		}).Error
}

// FailPayment marks a payment that has not settled as failed. A late gateway
// failure never overrides a completed payment.
func (r *Repository) FailPayment(ctx context.Context, orderID uuid.UUID, reason string, at time.Time) error {
	return r.failPayment(ctx, orderID, reason, at, true)
}

// VoidPayment marks the payment failed whatever its state; cancellation uses it.
func (r *Repository) VoidPayment(ctx context.Context, orderID uuid.UUID, reason string, at time.Time) error {
	return r.failPayment(ctx, orderID, reason, at, false)
}

func (r *Repository) failPayment(ctx context.Context, orderID uuid.UUID, reason string, at time.Time, keepCompleted bool) error {
	updates := map[string]any{"status": enums.PaymentStatusFailed, "updated_at": at}
	if reason != "" {
		updates["failure_reason"] = reason
	}
	q := r.db.WithContext(ctx).Model(&models.Payment{}).Where("order_id = ?", orderID)
	if keepCompleted {
		q = q.Where("status <> ?", enums.PaymentStatusCompleted)
	}
	return q.Updates(updates).Error
}

// SetPaymentReference stores the gateway reference returned when a payment is initiated.
func (r *Repository) SetPaymentReference(ctx context.Context, orderID uuid.UUID, reference string) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Update("gateway_reference", reference).Error
}

// Delete removes the order and its children.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.OrderLine{}).Error; err != nil {
		return false, err
	}
	if err := db.Where("order_id = ?", id).Delete(&models.Delivery{}).Error; err != nil {
		return false, err
	}
	if err := db.Where("order_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
		return false, err
	}
	res := db.Where("id = ?", id).Delete(&models.Order{})
	return res.RowsAffected == 1, res.Error
}

type listQuery struct {
	userID   *uuid.UUID
	status   *enums.OrderStatus
	dateFrom *time.Time
	dateTo   *time.Time
	limit    int
	cursor   *pagination.Cursor
}

// List returns orders newest first using cursor pagination.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.Order, error) {
	query := r.aggregate(ctx).Model(&models.Order{})
	if opts.userID != nil {
		query = query.Where("user_id = ?", *opts.userID)
	}
	if opts.status != nil {
		query = query.Where("status = ?", *opts.status)
	}
	if opts.dateFrom != nil {
		query = query.Where("created_at >= ?", *opts.dateFrom)
	}
	if opts.dateTo != nil {
		query = query.Where("created_at < ?", *opts.dateTo)
	}

	var rows []models.Order
	if err := query.Scopes(pagination.Keyset(opts.cursor, opts.limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) aggregate(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Delivery").
		Preload("Payment")
}
