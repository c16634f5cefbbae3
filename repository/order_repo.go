package repository

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/models"
)

// totals are compared in currency units with this tolerance
const totalTolerance = 0.01

// orderSortColumns maps accepted sortBy values onto columns. Anything else falls back to created_at.
var orderSortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"totalAmount": "total_amount",
	"status":      "status",
	"orderNumber": "order_number",
}

type OrderFilter struct {
	UserID    uint
	Status    string
	Search    string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

type OrderPage struct {
	Orders  []models.Order `json:"orders"`
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	HasMore bool           `json:"hasMore"`
}

// OrderUpdate is the whitelist of fields an admin may change; nil means unchanged.
type OrderUpdate struct {
	Status           *models.OrderStatus   `json:"status"`
	PaymentStatus    *models.PaymentStatus `json:"paymentStatus"`
	PaymentReference *string               `json:"paymentReference"`
	TrackingNumber   *string               `json:"trackingNumber"`
	Notes            *string               `json:"notes"`
	ShippingAddress  *models.Address       `json:"shippingAddress"`
	BillingAddress   *models.Address       `json:"billingAddress"`
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderNumberAttempts = 3

// nextOrderNumber is swapped in tests to force collisions.
var nextOrderNumber = newOrderNumber

func newOrderNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(id[:12])
}

func validateOrder(order *models.Order) error {
	if len(order.Items) == 0 {
		return invalid("items", "order items are required")
	}
	if math.IsNaN(order.TotalAmount) || order.TotalAmount <= 0 {
		return invalid("totalAmount", "total amount must be greater than 0")
	}
	if order.UserID == 0 {
		return invalid("userId", "user id is required")
	}
	for _, item := range order.Items {
		if item.Quantity < 1 {
			return invalid("items", "item quantity must be at least 1")
		}
	}
	if order.ShippingCost < 0 || order.Tax < 0 {
		return invalid("totalAmount", "shipping cost and tax must not be negative")
	}
	return nil
}

// Create persists an order after checking its invariants. Totals are taken as given.
// An order number collision is retried with a fresh number.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := validateOrder(order); err != nil {
		return err
	}
	order.Status = models.OrderStatusPending
	order.PaymentStatus = models.PaymentStatusPending

	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.ID = 0
		order.OrderNumber = nextOrderNumber()
		err = translate(r.db.WithContext(ctx).Create(order).Error)
		if !errors.Is(err, ErrDuplicate) {
			return err
		}
	}
	return err
}

// Checkout reprices every item from the catalog and requires the client's total to agree
// with subtotal + shipping + tax before creating the order.
func (r *OrderRepository) Checkout(ctx context.Context, order *models.Order) error {
	if err := validateOrder(order); err != nil {
		return err
	}

	ids := make([]uint, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := NewProductRepository(r.db).GetMany(ctx, ids)
	if err != nil {
		return err
	}

	subtotal := 0.0
	for i, item := range order.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return invalid("items", "product in order no longer exists")
		}
		order.Items[i].Price = product.Price
		if order.Items[i].Title == "" {
			order.Items[i].Title = product.Title
		}
		if order.Items[i].Image == "" && len(product.Images) > 0 {
			order.Items[i].Image = product.Images[0]
		}
		subtotal += product.Price * float64(item.Quantity)
	}
	subtotal = math.Round(subtotal*100) / 100

	expected := subtotal + order.ShippingCost + order.Tax
	if math.Abs(expected-order.TotalAmount) > totalTolerance {
		return invalid("totalAmount", "order total does not match catalog prices")
	}
	order.Subtotal = subtotal

	return r.Create(ctx, order)
}

func (f OrderFilter) scope(db *gorm.DB) *gorm.DB {
	if f.UserID != 0 {
		db = db.Where("user_id = ?", f.UserID)
	}
	if status := strings.TrimSpace(f.Status); status != "" {
		db = db.Where("status = ?", strings.ToLower(status))
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := containsPattern(search)
		db = db.Where(anyLike("order_number", "shipping_address"), pattern, pattern)
	}
	return db
}

func (f OrderFilter) orderClause() string {
	column, ok := orderSortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		direction = "ASC"
	}
	return column + " " + direction + ", id " + direction
}

func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) (*OrderPage, error) {
	if filter.Status != "" && !models.OrderStatus(strings.ToLower(filter.Status)).Valid() {
		return nil, invalid("status", "unknown order status")
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset)

	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Scopes(filter.scope).
		Count(&total).
		Error
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	err = r.db.WithContext(ctx).
		Scopes(filter.scope).
		Order(filter.orderClause()).
		Limit(limit + 1).
		Offset(offset).
		Find(&orders).
		Error
	if err != nil {
		return nil, err
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	return &OrderPage{Orders: orders, Total: total, Limit: limit, Offset: offset, HasMore: hasMore}, nil
}

func (r *OrderRepository) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *OrderRepository) Update(ctx context.Context, id uint, upd OrderUpdate) (*models.Order, error) {
	order, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, invalid("status", "unknown order status")
		}
		order.Status = *upd.Status
	}
	if upd.PaymentStatus != nil {
		if !upd.PaymentStatus.Valid() {
			return nil, invalid("paymentStatus", "unknown payment status")
		}
		order.PaymentStatus = *upd.PaymentStatus
	}
	if upd.PaymentReference != nil {
		order.PaymentReference = *upd.PaymentReference
	}
	if upd.TrackingNumber != nil {
		order.TrackingNumber = *upd.TrackingNumber
	}
	if upd.Notes != nil {
		order.Notes = *upd.Notes
	}
	if upd.ShippingAddress != nil {
		order.ShippingAddress = *upd.ShippingAddress
	}
	if upd.BillingAddress != nil {
		order.BillingAddress = *upd.BillingAddress
	}

	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		return nil, translate(err)
	}
	return order, nil
}

// FindByReference returns the order a payment reference was recorded on.
func (r *OrderRepository) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, ErrNotFound
	}
	var order models.Order
	err := r.db.WithContext(ctx).Where("payment_reference = ?", reference).First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func referenceTaken(tx *gorm.DB, reference string, orderID uint) (bool, error) {
	var n int64
	err := tx.Model(&models.Order{}).
		Where("payment_reference = ? AND id <> ?", reference, orderID).
		Count(&n).
		Error
	return n > 0, err
}

// MarkPaid records a successful payment. A pending order moves on to processing.
// A reference already recorded on another order is rejected.
func (r *OrderRepository) MarkPaid(ctx context.Context, id uint, reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			return translate(err)
		}
		if reference != "" {
			taken, err := referenceTaken(tx, reference, id)
			if err != nil {
				return err
			}
			if taken {
				return duplicate("paymentReference", "payment reference already used")
			}
			order.PaymentReference = reference
		}
		order.PaymentStatus = models.PaymentStatusPaid
		if order.Status == models.OrderStatusPending {
			order.Status = models.OrderStatusProcessing
		}
		return tx.Save(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Order{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
