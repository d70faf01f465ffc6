package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore-api/pkg/apperror"
	"bookstore-api/pkg/ctxmanage"
	"bookstore-api/pkg/logkey"
)

func (h *Handler) GetCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	cartResponse, err := h.ct.GetOrCreateCart(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, claims.Subject))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, cartResponse)
}

func (h *Handler) AddToCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	var request struct {
		BookID   string `json:"book_id" validate:"required"`
		Quantity int    `json:"quantity" validate:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, apperror.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(request); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, apperror.Validation("book_id and a positive quantity are required"))
		return
	}

	// The stock check here is advisory; the authoritative check happens
	// under lock at checkout.
	book, err := h.b.GetBookByID(c.Request.Context(), request.BookID)
	if err != nil {
		slog.Error("error fetching book for cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.BookID, request.BookID), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	item, err := h.ct.AddItem(c.Request.Context(), claims.Subject, book.ID, request.Quantity, book.Stock)
	if err != nil {
		slog.Error("error adding book to cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.BookID, request.BookID))
		apperror.Respond(c, err)
		return
	}

	slog.Info("book added to cart", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.BookID, request.BookID), slog.Int("Quantity", item.Quantity),
		slog.String(logkey.UserID, claims.Subject))
	c.JSON(http.StatusOK, item)
}

func (h *Handler) SetCartItemQuantity(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	var request struct {
		Quantity int `json:"quantity" validate:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(request); err != nil {
		apperror.Respond(c, apperror.Validation("a positive quantity is required"))
		return
	}

	item, err := h.ct.SetItemQuantity(c.Request.Context(), claims.Subject, c.Param("id"), request.Quantity)
	if err != nil {
		slog.Error("error updating cart item", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, claims.Subject))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	if err := h.ct.RemoveItem(c.Request.Context(), claims.Subject, c.Param("id")); err != nil {
		slog.Error("error removing cart item", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, claims.Subject))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "item removed"})
}

func (h *Handler) ClearCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	if err := h.ct.ClearCart(c.Request.Context(), claims.Subject); err != nil {
		slog.Error("error clearing cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, claims.Subject))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}
