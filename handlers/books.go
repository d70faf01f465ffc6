package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookstore-api/internal/books"
	"bookstore-api/pkg/apperror"
	"bookstore-api/pkg/ctxmanage"
	"bookstore-api/pkg/logkey"
)

func (h *Handler) ListBooks(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	page, limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	minPrice, _ := strconv.Atoi(c.DefaultQuery("minPrice", "0"))
	maxPrice, _ := strconv.Atoi(c.DefaultQuery("maxPrice", "0"))

	filter := books.Filter{
		Query:    c.Query("q"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     c.DefaultQuery("sort", "createdAt"),
		Order:    c.DefaultQuery("order", "desc"),
		Limit:    limit,
		Offset:   offset,
	}

	items, total, err := h.b.ListBooks(c.Request.Context(), filter)
	if err != nil {
		slog.Error("error listing books", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "meta": meta(page, limit, total, len(items))})
}

func (h *Handler) GetBook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	book, err := h.b.GetBookByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		slog.Error("error fetching book", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.BookID, c.Param("id")), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, book)
}

func (h *Handler) CreateBook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if c.Request.ContentLength > 5*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId),
			slog.Int64("Size Received", c.Request.ContentLength))
		apperror.Respond(c, apperror.Validation("request body too large"))
		return
	}

	var newBook books.NewBook
	if err := c.ShouldBindJSON(&newBook); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, apperror.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(newBook); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, apperror.Validation("title, author and a positive price are required"))
		return
	}

	book, err := h.b.InsertBook(c.Request.Context(), newBook)
	if err != nil {
		slog.Error("error inserting book", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	slog.Info("book created", slog.String(logkey.TraceID, traceId), slog.String(logkey.BookID, book.ID))
	c.JSON(http.StatusCreated, book)
}

func (h *Handler) UpdateBook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	bookID := c.Param("id")

	var update books.NewBook
	if err := c.ShouldBindJSON(&update); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(update); err != nil {
		apperror.Respond(c, apperror.Validation("title, author and a positive price are required"))
		return
	}

	book, err := h.b.UpdateBook(c.Request.Context(), bookID, update)
	if err != nil {
		slog.Error("error updating book", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.BookID, bookID), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	slog.Info("book updated", slog.String(logkey.TraceID, traceId), slog.String(logkey.BookID, bookID))
	c.JSON(http.StatusOK, book)
}

func (h *Handler) DeleteBook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	bookID := c.Param("id")

	if err := h.b.SoftDeleteBook(c.Request.Context(), bookID); err != nil {
		slog.Error("error deleting book", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.BookID, bookID), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "book deleted"})
}

func (h *Handler) ListBookReviews(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	page, limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	items, total, err := h.r.ListByBook(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		slog.Error("error listing book reviews", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "meta": meta(page, limit, total, len(items))})
}

func (h *Handler) GetBookStats(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	stats, err := h.r.BookStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		slog.Error("error fetching book stats", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
