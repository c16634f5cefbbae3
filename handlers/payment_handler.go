package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/models"
	"storefront/payments"
	"storefront/queue"
	"storefront/repository"
)

const (
	paystackSignatureHeader = "x-paystack-signature"
	maxWebhookBody          = 1 << 20
)

// VerifyPaystack confirms a transaction with Paystack and marks the caller's order paid.
func (h *Handler) VerifyPaystack(c *gin.Context) {
	var req struct {
		Reference string `json:"reference"`
		OrderID   uint   `json:"orderId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Reference) == "" || req.OrderID == 0 {
		badRequest(c, "reference and orderId are required", nil)
		return
	}
	if !h.paystack.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "payment verification is not configured"})
		return
	}

	order, ok := h.ownedOrder(c, req.OrderID)
	if !ok {
		return
	}

	tx, err := h.paystack.Verify(c.Request.Context(), req.Reference)
	if err != nil {
		h.log.Warn("paystack verify failed", zap.String("reference", req.Reference), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "payment verification failed"})
		return
	}
	if !tx.Succeeded() {
		badRequest(c, "payment was not successful", nil)
		return
	}
	if !tx.Covers(order.TotalAmount) {
		badRequest(c, "paid amount does not cover the order total", nil)
		return
	}
	if !tx.ForOrder(order.ID) {
		badRequest(c, "payment does not belong to this order", nil)
		return
	}
	if !tx.InCurrency(h.storeCurrency(c)) {
		badRequest(c, "payment currency does not match the store currency", nil)
		return
	}

	order, err = h.orders.MarkPaid(c.Request.Context(), order.ID, req.Reference)
	if err != nil {
		h.respondError(c, err, "order")
		return
	}
	h.publish(c, queue.KeyOrderPaid, queue.OrderPaid{OrderID: order.ID, Reference: req.Reference, Source: "verify"})
	c.JSON(http.StatusOK, gin.H{
		"message": "payment verified",
		"order":   order,
	})
}

// PaystackWebhook accepts signed event deliveries. Anything not actionable is acknowledged
// with 200 so Paystack stops retrying; storage failures answer 500 so it retries.
func (h *Handler) PaystackWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		badRequest(c, "unreadable request body", err)
		return
	}
	if len(body) > maxWebhookBody {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "request body too large"})
		return
	}
	if !h.paystack.ValidSignature(body, c.GetHeader(paystackSignatureHeader)) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid signature"})
		return
	}
	ev, err := payments.ParseEvent(body)
	if err != nil {
		badRequest(c, "invalid webhook payload", err)
		return
	}

	ack := gin.H{"message": "webhook received"}
	if ev.Event != "charge.success" {
		c.JSON(http.StatusOK, ack)
		return
	}

	log := h.log.With(zap.String("reference", ev.Data.Reference))
	orderID, err := strconv.ParseUint(ev.Data.Metadata.OrderID.String(), 10, 64)
	if err != nil || orderID == 0 {
		log.Warn("charge.success without order id")
		c.JSON(http.StatusOK, ack)
		return
	}
	order, err := h.orders.Get(c.Request.Context(), uint(orderID))
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("charge.success for unknown order", zap.Uint64("order_id", orderID))
		c.JSON(http.StatusOK, ack)
		return
	}
	if err != nil {
		h.respondError(c, err, "order")
		return
	}
	if !ev.Data.Succeeded() || !ev.Data.Covers(order.TotalAmount) || !ev.Data.InCurrency(h.storeCurrency(c)) {
		log.Warn("charge.success does not cover order",
			zap.Uint("order_id", order.ID),
			zap.Int64("amount", ev.Data.Amount),
			zap.String("currency", ev.Data.Currency),
		)
		c.JSON(http.StatusOK, ack)
		return
	}
	if prior, err := h.orders.FindByReference(c.Request.Context(), ev.Data.Reference); err == nil &&
		prior.ID == order.ID && prior.PaymentStatus == models.PaymentStatusPaid {
		log.Info("charge.success already applied", zap.Uint("order_id", order.ID))
		c.JSON(http.StatusOK, ack)
		return
	}

	if _, err := h.orders.MarkPaid(c.Request.Context(), order.ID, ev.Data.Reference); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			log.Warn("charge.success reference already used", zap.Uint("order_id", order.ID))
			c.JSON(http.StatusOK, ack)
			return
		}
		h.respondError(c, err, "order")
		return
	}
	h.publish(c, queue.KeyOrderPaid, queue.OrderPaid{OrderID: order.ID, Reference: ev.Data.Reference, Source: "webhook"})
	c.JSON(http.StatusOK, ack)
}

// storeCurrency is the currency payments must be charged in, from the currency setting.
func (h *Handler) storeCurrency(c *gin.Context) string {
	return h.settings.String(c.Request.Context(), "currency", "")
}
