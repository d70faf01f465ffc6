package middleware

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"bookstore-api/internal/auth"
	"bookstore-api/pkg/apperror"
	"bookstore-api/pkg/ctxmanage"
	"bookstore-api/pkg/logkey"
)

type Mid struct {
	a *auth.Service
}

func NewMid(a *auth.Service) (*Mid, error) {
	if a == nil {
		return nil, fmt.Errorf("auth service is nil")
	}
	return &Mid{a: a}, nil
}

// Authentication verifies the bearer token and stores the claims on the
// request context for downstream handlers.
func (m *Mid) Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		claims, err := m.a.Authenticate(c.Request.Header.Get("Authorization"))
		if err != nil {
			slog.Error("authentication failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			apperror.Respond(c, err)
			return
		}

		ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Authorize wraps a handler with a role check against the authenticated
// claims.
func (m *Mid) Authorize(next gin.HandlerFunc, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
		if !ok {
			slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
			apperror.Respond(c, apperror.NoToken("authorization token is required"))
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				next(c)
				return
			}
		}

		slog.Error("role not permitted", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String("Role", claims.Role))
		apperror.Respond(c, apperror.Forbidden("insufficient permissions"))
	}
}
