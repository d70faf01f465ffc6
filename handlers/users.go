package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore-api/internal/users"
	"bookstore-api/pkg/apperror"
	"bookstore-api/pkg/ctxmanage"
	"bookstore-api/pkg/logkey"
)

func (h *Handler) Signup(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var newUser users.NewUser
	if err := c.ShouldBindJSON(&newUser); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, apperror.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(newUser); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, apperror.Validation("email, password and name are required"))
		return
	}

	user, err := h.u.InsertUser(c.Request.Context(), newUser)
	if err != nil {
		slog.Error("error inserting user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	slog.Info("user created", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, user.ID))
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email})
}

func (h *Handler) GetMe(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	user, err := h.u.GetActiveUserByID(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	var request struct {
		Name string `json:"name" validate:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(request); err != nil {
		apperror.Respond(c, apperror.Validation("name is required"))
		return
	}

	user, err := h.u.UpdateName(c.Request.Context(), claims.Subject, request.Name)
	if err != nil {
		slog.Error("error updating user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": user.ID, "name": user.Name})
}

// DeleteMe soft-deletes the account and revokes its refresh tokens so
// no session outlives the account.
func (h *Handler) DeleteMe(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	if err := h.u.SoftDeleteUser(c.Request.Context(), claims.Subject); err != nil {
		slog.Error("error deleting user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		apperror.Respond(c, err)
		return
	}
	if err := h.a.Logout(c.Request.Context(), claims.Subject); err != nil {
		slog.Error("error revoking sessions", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}

	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}
