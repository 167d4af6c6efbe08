package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/mapper"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService manages production, supply and service orders
type OrderService struct {
	orderRepo    *repository.OrderRepository
	customerRepo *repository.CustomerRepository
	numbers      *NumberSequenceService
	logger       *zap.Logger
	db           *gorm.DB
	now          func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo *repository.OrderRepository,
	customerRepo *repository.CustomerRepository,
	numbers *NumberSequenceService,
	logger *zap.Logger,
	db *gorm.DB,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		numbers:      numbers,
		logger:       logger,
		db:           db,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new order with the next ORD number. When the request names
// a case, the case is linked to the order in the same transaction.
func (s *OrderService) Create(ctx context.Context, req *domain.CreateOrderRequest) (*domain.OrderDTO, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown order type %q", ErrInvalidInput, req.Type)
	}
	customer, err := s.customerRepo.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	order := newOrder(req.Type, customer.ID, customer.Name, strings.TrimSpace(req.Title))
	order.Description = req.Description
	order.TotalAmount = req.TotalAmount
	order.DueDate = req.DueDate
	if req.Currency != "" {
		order.Currency = req.Currency
	}
	switch req.Type {
	case domain.OrderTypeProduction:
		order.Production.FormulaCode = req.FormulaCode
		order.Production.BatchSize = req.BatchSize
	case domain.OrderTypeSupply:
		order.Supply.Supplier = req.Supplier
	case domain.OrderTypeService:
		order.Service.ScheduledAt = req.ScheduledAt
		order.Service.Location = req.Location
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.CaseID != nil {
			c, err := s.lockCase(ctx, tx, *req.CaseID)
			if err != nil {
				return err
			}
			if c.CustomerID != customer.ID {
				return fmt.Errorf("%w: case belongs to another customer", ErrInvalidInput)
			}
			order.CaseID = &c.ID
		}
		return s.insert(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	dto := mapper.ToOrderDTO(order)
	return &dto, nil
}

// CreateFromCase converts a won case into an order. Consultation cases
// become service orders.
func (s *OrderService) CreateFromCase(ctx context.Context, caseID uuid.UUID) (*domain.OrderDTO, error) {
	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.lockCase(ctx, tx, caseID)
		if err != nil {
			return err
		}
		if c.Status != domain.CaseStatusWon {
			return ErrCaseNotWon
		}

		orderType := domain.OrderType(c.Type)
		if !orderType.IsValid() {
			orderType = domain.OrderTypeService
		}
		order = newOrder(orderType, c.CustomerID, c.CustomerName, c.Title)
		order.CaseID = &c.ID
		order.Description = c.Description
		order.TotalAmount = c.Financials.FinalValue
		if order.TotalAmount == 0 {
			order.TotalAmount = c.Financials.QuotedValue
		}
		if c.Financials.Currency != "" {
			order.Currency = c.Financials.Currency
		}
		return s.insert(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	dto := mapper.ToOrderDTO(order)
	return &dto, nil
}

// lockCase loads a case that has no order yet and locks its row
func (s *OrderService) lockCase(ctx context.Context, tx *gorm.DB, caseID uuid.UUID) (*domain.Case, error) {
	c, err := repository.NewCaseRepository(tx).GetByIDForUpdate(ctx, caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	if c.OrderID != nil {
		return nil, ErrCaseHasOrder
	}
	return c, nil
}

// insert numbers and stores the order, then points its case at it. The link
// only succeeds while the case has no order, so a racing insert rolls back.
func (s *OrderService) insert(ctx context.Context, tx *gorm.DB, order *domain.Order) error {
	number, err := s.numbers.WithRepository(repository.NewNumberSequenceRepository(tx)).GenerateOrderNumber(ctx)
	if err != nil {
		return err
	}
	order.OrderNumber = number
	if err := repository.NewOrderRepository(tx).Create(ctx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	if order.CaseID != nil {
		attached, err := repository.NewCaseRepository(tx).AttachOrder(ctx, *order.CaseID, order.ID)
		if err != nil {
			return fmt.Errorf("failed to link case: %w", err)
		}
		if !attached {
			return ErrCaseHasOrder
		}
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("type", string(order.Type)))
	return nil
}

func newOrder(t domain.OrderType, customerID uuid.UUID, customerName, title string) *domain.Order {
	order := &domain.Order{
		Type:          t,
		CustomerID:    customerID,
		CustomerName:  customerName,
		Title:         title,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusUnpaid,
		Currency:      "TRY",
	}
	if first, ok := domain.NextStage(t, ""); ok {
		order.Stage = first
	}
	switch t {
	case domain.OrderTypeProduction:
		order.Production = &domain.ProductionInfo{Steps: domain.DefaultProductionSteps()}
	case domain.OrderTypeSupply:
		order.Supply = &domain.SupplyInfo{}
	case domain.OrderTypeService:
		order.Service = &domain.ServiceInfo{}
	}
	return order
}

func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToOrderDTO(order)
	return &dto, nil
}

func (s *OrderService) List(ctx context.Context, filters *repository.OrderFilters, params repository.CursorParams) (*domain.CursorPage, error) {
	page, err := s.orderRepo.List(ctx, filters, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	dtos := make([]domain.OrderDTO, len(page.Items))
	for i := range page.Items {
		dtos[i] = mapper.ToOrderDTO(&page.Items[i])
	}
	result := mapper.ToCursorPage(dtos, page.NextCursor, page.HasMore)
	return &result, nil
}

// Update applies the fields present in req. Type-specific fields are ignored
// for orders of another type.
func (s *OrderService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateOrderRequest) (*domain.OrderDTO, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		order.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		order.Description = *req.Description
	}
	if req.TotalAmount != nil {
		order.TotalAmount = *req.TotalAmount
	}
	if req.DueDate != nil {
		order.DueDate = req.DueDate
	}
	if order.Supply != nil {
		if req.Supplier != nil {
			order.Supply.Supplier = *req.Supplier
		}
		if req.TrackingNumber != nil {
			order.Supply.TrackingNumber = *req.TrackingNumber
		}
	}
	if order.Service != nil {
		if req.ScheduledAt != nil {
			order.Service.ScheduledAt = req.ScheduledAt
		}
		if req.Location != nil {
			order.Service.Location = *req.Location
		}
	}

	return s.save(ctx, order)
}

// AdvanceStage moves the order to the next stage of its type. For production
// orders the step of the stage being left is marked complete.
func (s *OrderService) AdvanceStage(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	next, ok := domain.NextStage(order.Type, order.Stage)
	if !ok {
		return nil, ErrNoNextStage
	}
	if order.Production != nil {
		s.completeStep(order.Production, order.Stage)
	}
	order.Stage = next
	return s.save(ctx, order)
}

// SetStage jumps to any stage of the order's type
func (s *OrderService) SetStage(ctx context.Context, id uuid.UUID, stage string) (*domain.OrderDTO, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.IsValidStage(order.Type, stage) {
		return nil, fmt.Errorf("%w: %q is not a %s stage", ErrInvalidStage, stage, order.Type)
	}
	order.Stage = stage
	return s.save(ctx, order)
}

// ToggleProductionStep flips one step of a production order
func (s *OrderService) ToggleProductionStep(ctx context.Context, id uuid.UUID, key string) (*domain.OrderDTO, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Type != domain.OrderTypeProduction || order.Production == nil {
		return nil, fmt.Errorf("%w: only production orders have steps", ErrInvalidInput)
	}

	found := false
	for i := range order.Production.Steps {
		step := &order.Production.Steps[i]
		if step.Key != key {
			continue
		}
		found = true
		step.Completed = !step.Completed
		if step.Completed {
			now := s.now()
			step.CompletedAt = &now
		} else {
			step.CompletedAt = nil
		}
		break
	}
	if !found {
		return nil, ErrStepNotFound
	}
	return s.save(ctx, order)
}

func (s *OrderService) completeStep(p *domain.ProductionInfo, key string) {
	for i := range p.Steps {
		if p.Steps[i].Key == key && !p.Steps[i].Completed {
			now := s.now()
			p.Steps[i].Completed = true
			p.Steps[i].CompletedAt = &now
		}
	}
}

// UpdatePayment records the paid amount. Without an explicit payment status
// the status follows from the amounts.
func (s *OrderService) UpdatePayment(ctx context.Context, id uuid.UUID, req *domain.UpdatePaymentRequest) (*domain.OrderDTO, error) {
	if req.PaidAmount < 0 {
		return nil, fmt.Errorf("%w: paid amount cannot be negative", ErrInvalidInput)
	}
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	order.PaidAmount = req.PaidAmount
	if req.PaymentStatus != "" {
		order.PaymentStatus = req.PaymentStatus
	} else {
		order.PaymentStatus = paymentStatusFor(order.PaidAmount, order.TotalAmount)
	}
	return s.save(ctx, order)
}

func paymentStatusFor(paid, total float64) domain.PaymentStatus {
	switch {
	case paid <= 0:
		return domain.PaymentStatusUnpaid
	case paid >= total:
		return domain.PaymentStatusPaid
	}
	return domain.PaymentStatusPartial
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.OrderDTO, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := order.Status
	order.Status = status
	dto, err := s.save(ctx, order)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order status changed",
		zap.String("order_id", id.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("changed_by", actor(ctx)))
	return dto, nil
}

// Delete removes an order and clears the order reference of its case
func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Model(&domain.Case{}).
			Where("order_id = ?", id).
			Updates(map[string]interface{}{"order_id": nil, "updated_at": s.now()}).Error; err != nil {
			return fmt.Errorf("failed to unlink case: %w", err)
		}
		if err := repository.NewOrderRepository(tx).Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("order deleted", zap.String("order_id", id.String()), zap.String("deleted_by", actor(ctx)))
	return nil
}

func (s *OrderService) save(ctx context.Context, order *domain.Order) (*domain.OrderDTO, error) {
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	dto := mapper.ToOrderDTO(order)
	return &dto, nil
}

func (s *OrderService) getOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}
