package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore-api/pkg/apperror"
	"bookstore-api/pkg/ctxmanage"
	"bookstore-api/pkg/logkey"
)

func (h *Handler) Login(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, apperror.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(request); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, apperror.Validation("email and password are required"))
		return
	}

	pair, err := h.a.Login(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		slog.Error("login failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (h *Handler) Refresh(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var request struct {
		RefreshToken string `json:"refreshToken"`
	}
	// An absent or unreadable body is treated as a missing token, the
	// service reports it as a validation failure.
	_ = c.ShouldBindJSON(&request)

	accessToken, err := h.a.Refresh(c.Request.Context(), request.RefreshToken)
	if err != nil {
		slog.Error("token refresh failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
}

func (h *Handler) Logout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	if err := h.a.Logout(c.Request.Context(), claims.Subject); err != nil {
		slog.Error("logout failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, claims.Subject))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
