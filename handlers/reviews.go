package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore-api/internal/reviews"
	"bookstore-api/pkg/apperror"
	"bookstore-api/pkg/ctxmanage"
	"bookstore-api/pkg/logkey"
)

func (h *Handler) CreateReview(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	var nr reviews.NewReview
	if err := c.ShouldBindJSON(&nr); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(nr); err != nil {
		apperror.Respond(c, apperror.Validation("book_id and a rating between 1 and 5 are required"))
		return
	}

	// Reject reviews of books that do not exist or were removed.
	if _, err := h.b.GetBookByID(c.Request.Context(), nr.BookID); err != nil {
		apperror.Respond(c, err)
		return
	}

	review, err := h.r.InsertReview(c.Request.Context(), claims.Subject, nr)
	if err != nil {
		slog.Error("error creating review", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.BookID, nr.BookID))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

func (h *Handler) UpdateReview(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	var request struct {
		Rating  int    `json:"rating" validate:"required,min=1,max=5"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(request); err != nil {
		apperror.Respond(c, apperror.Validation("a rating between 1 and 5 is required"))
		return
	}

	review, err := h.r.UpdateReview(c.Request.Context(), claims.Subject, c.Param("id"), request.Rating, request.Comment)
	if err != nil {
		slog.Error("error updating review", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

func (h *Handler) DeleteReview(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	if err := h.r.DeleteReview(c.Request.Context(), claims.Subject, c.Param("id")); err != nil {
		slog.Error("error deleting review", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "review deleted"})
}

func (h *Handler) ListMyReviews(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	page, limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	list, total, err := h.r.ListByUser(c.Request.Context(), claims.Subject, limit, offset)
	if err != nil {
		slog.Error("error listing reviews", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, claims.Subject))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": list, "meta": meta(page, limit, total, len(list))})
}
