package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore-api/internal/orders"
	"bookstore-api/pkg/apperror"
	"bookstore-api/pkg/ctxmanage"
	"bookstore-api/pkg/logkey"
)

func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	order, err := h.o.CreateOrderFromCart(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("checkout failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, claims.Subject))
		apperror.Respond(c, err)
		return
	}

	slog.Info("order created", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.OrderID, order.ID), slog.String(logkey.UserID, claims.Subject))
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) ListMyOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	page, limit, offset, ok := pagination(c)
	if !ok {
		return
	}
	filter := orders.ListFilter{
		Status: c.Query("status"),
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
		Limit:  limit,
		Offset: offset,
	}

	list, total, err := h.o.GetMyOrders(c.Request.Context(), claims.Subject, filter)
	if err != nil {
		slog.Error("error listing orders", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, claims.Subject))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": list, "meta": meta(page, limit, total, len(list))})
}

func (h *Handler) GetOrderDetail(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	order, err := h.o.GetOrderDetail(c.Request.Context(), claims.Subject, c.Param("id"))
	if err != nil {
		slog.Error("error fetching order", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.OrderID, c.Param("id")))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) CancelOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	order, err := h.o.CancelOrder(c.Request.Context(), claims.Subject, c.Param("id"))
	if err != nil {
		slog.Error("cancel failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.OrderID, c.Param("id")))
		apperror.Respond(c, err)
		return
	}

	slog.Info("order cancelled", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.OrderID, order.ID), slog.String(logkey.UserID, claims.Subject))
	c.JSON(http.StatusOK, order)
}

func (h *Handler) AdminListOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	page, limit, offset, ok := pagination(c)
	if !ok {
		return
	}
	filter := orders.ListFilter{
		UserID: c.Query("user_id"),
		Status: c.Query("status"),
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
		Limit:  limit,
		Offset: offset,
	}

	list, total, err := h.o.AdminListOrders(c.Request.Context(), filter)
	if err != nil {
		slog.Error("error listing all orders", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": list, "meta": meta(page, limit, total, len(list))})
}

func (h *Handler) AdminSetOrderStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var request struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(request); err != nil {
		apperror.Respond(c, apperror.Validation("status is required"))
		return
	}

	order, err := h.o.AdminSetStatus(c.Request.Context(), c.Param("id"), request.Status)
	if err != nil {
		slog.Error("error setting order status", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.OrderID, c.Param("id")))
		apperror.Respond(c, err)
		return
	}

	slog.Info("order status updated", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.OrderID, order.ID), slog.String("Status", order.Status))
	c.JSON(http.StatusOK, order)
}
