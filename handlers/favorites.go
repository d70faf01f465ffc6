package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore-api/pkg/apperror"
	"bookstore-api/pkg/ctxmanage"
	"bookstore-api/pkg/logkey"
)

func (h *Handler) AddFavorite(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	bookID := c.Param("bookId")
	if _, err := h.b.GetBookByID(c.Request.Context(), bookID); err != nil {
		apperror.Respond(c, err)
		return
	}

	if err := h.f.AddFavorite(c.Request.Context(), claims.Subject, bookID); err != nil {
		slog.Error("error adding favorite", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.BookID, bookID))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "book added to favorites"})
}

func (h *Handler) RemoveFavorite(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	if err := h.f.RemoveFavorite(c.Request.Context(), claims.Subject, c.Param("bookId")); err != nil {
		slog.Error("error removing favorite", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.BookID, c.Param("bookId")))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "book removed from favorites"})
}

func (h *Handler) ListMyFavorites(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	page, limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	list, total, err := h.f.ListMyFavorites(c.Request.Context(), claims.Subject, limit, offset)
	if err != nil {
		slog.Error("error listing favorites", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, claims.Subject))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorites": list, "meta": meta(page, limit, total, len(list))})
}
