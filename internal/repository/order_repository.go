package repository

import (
	"context"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderFilters holds filters for listing orders
type OrderFilters struct {
	Search        string
	Type          *domain.OrderType
	Status        *domain.OrderStatus
	PaymentStatus *domain.PaymentStatus
	CustomerID    *uuid.UUID
}

// OrderRepository handles database operations for orders
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByCaseID returns the order created from a case
func (r *OrderRepository) GetByCaseID(ctx context.Context, caseID uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).First(&order, "case_id = ?", caseID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CountByCustomer counts orders placed by a customer
func (r *OrderRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Order{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns a cursor page of orders, newest first
func (r *OrderRepository) List(ctx context.Context, filters *OrderFilters, params CursorParams) (Page[domain.Order], error) {
	query := r.db.WithContext(ctx).Model(&domain.Order{})
	if filters != nil {
		if filters.Search != "" {
			p := likePattern(filters.Search)
			query = query.Where("LOWER(title) LIKE ? ESCAPE '!' OR LOWER(order_number) LIKE ? ESCAPE '!' OR LOWER(customer_name) LIKE ? ESCAPE '!'", p, p, p)
		}
		if filters.Type != nil {
			query = query.Where("type = ?", *filters.Type)
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.PaymentStatus != nil {
			query = query.Where("payment_status = ?", *filters.PaymentStatus)
		}
		if filters.CustomerID != nil {
			query = query.Where("customer_id = ?", *filters.CustomerID)
		}
	}

	query, err := applyCursor(ctx, r.db, query, "orders", params)
	if err != nil {
		return Page[domain.Order]{}, err
	}

	var orders []domain.Order
	if err := query.Find(&orders).Error; err != nil {
		return Page[domain.Order]{}, err
	}
	return newPage(orders, params.Limit, func(o *domain.Order) uuid.UUID { return o.ID }), nil
}

// ListRecent returns the most recent orders up to limit
func (r *OrderRepository) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// ReassignCustomer moves orders from the given customers to target
func (r *OrderRepository) ReassignCustomer(ctx context.Context, from []uuid.UUID, target *domain.Customer) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("customer_id IN ?", from).
		Updates(map[string]interface{}{
			"customer_id":   target.ID,
			"customer_name": target.Name,
			"updated_at":    time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}
