package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/middleware"
	"storefront/models"
	"storefront/queue"
	"storefront/repository"
)

type orderInput struct {
	Items           []models.OrderItem `json:"items"`
	ShippingAddress models.Address     `json:"shippingAddress"`
	BillingAddress  models.Address     `json:"billingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	ShippingCost    float64            `json:"shippingCost"`
	Tax             float64            `json:"tax"`
	TotalAmount     float64            `json:"totalAmount"`
	Notes           string             `json:"notes"`
}

// CreateOrder reprices the cart from the catalog and stores the order for the caller.
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var in orderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid order data", err)
		return
	}

	order := &models.Order{
		UserID:          userID,
		Items:           in.Items,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  in.BillingAddress,
		PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
		ShippingCost:    in.ShippingCost,
		Tax:             in.Tax,
		TotalAmount:     in.TotalAmount,
		Notes:           in.Notes,
	}
	if err := h.orders.Checkout(c.Request.Context(), order); err != nil {
		h.respondError(c, err, "order")
		return
	}

	h.publish(c, queue.KeyOrderCreated, queue.OrderCreated{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
	})
	c.JSON(http.StatusCreated, order)
}

func orderFilterFromQuery(c *gin.Context) (repository.OrderFilter, bool) {
	filter := repository.OrderFilter{
		Status:    strings.TrimSpace(c.Query("status")),
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	var ok bool
	if filter.Limit, ok = queryInt(c, "limit", repository.DefaultLimit); !ok {
		return filter, false
	}
	if filter.Offset, ok = queryInt(c, "offset", 0); !ok {
		return filter, false
	}
	return filter, true
}

func (h *Handler) MyOrders(c *gin.Context) {
	filter, ok := orderFilterFromQuery(c)
	if !ok {
		return
	}
	filter.UserID, _ = middleware.CurrentUserID(c)

	page, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, "order")
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListOrders is the admin view over every order, optionally narrowed to one user.
func (h *Handler) ListOrders(c *gin.Context) {
	filter, ok := orderFilterFromQuery(c)
	if !ok {
		return
	}
	userID, ok := queryInt(c, "userId", 0)
	if !ok {
		return
	}
	if userID > 0 {
		filter.UserID = uint(userID)
	}

	page, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, "order")
		return
	}
	c.JSON(http.StatusOK, page)
}

// ownedOrder loads the order and checks the caller may see it. It writes the response on failure.
func (h *Handler) ownedOrder(c *gin.Context, id uint) (*models.Order, bool) {
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "order")
		return nil, false
	}
	userID, _ := middleware.CurrentUserID(c)
	if order.UserID != userID && !middleware.IsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "not authorized to access this order"})
		return nil, false
	}
	return order, true
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, ok := h.ownedOrder(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) UpdateOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var upd repository.OrderUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, "invalid order data", err)
		return
	}

	before, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "order")
		return
	}
	order, err := h.orders.Update(c.Request.Context(), id, upd)
	if err != nil {
		h.respondError(c, err, "order")
		return
	}

	if before.PaymentStatus != models.PaymentStatusPaid && order.PaymentStatus == models.PaymentStatusPaid {
		h.publish(c, queue.KeyOrderPaid, queue.OrderPaid{
			OrderID:   order.ID,
			Reference: order.PaymentReference,
			Source:    "admin",
		})
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
}
