package handlers

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookstore-api/internal/auth"
	"bookstore-api/pkg/apperror"
	"bookstore-api/pkg/ctxmanage"
	"bookstore-api/pkg/logkey"
)

// claimsOfRequest pulls the claims the authentication middleware stored
// on the request context.
func claimsOfRequest(c *gin.Context) (auth.Claims, bool) {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		traceId := ctxmanage.GetTraceIdOfRequest(c)
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		apperror.Respond(c, apperror.NoToken("authorization token is required"))
		return auth.Claims{}, false
	}
	return claims, true
}

type pageMeta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"hasNext"`
}

func meta(page, limit, total, count int) pageMeta {
	return pageMeta{
		Page:    page,
		Limit:   limit,
		Total:   total,
		HasNext: (page-1)*limit+count < total,
	}
}

// pagination parses page/limit query params with sane defaults.
func pagination(c *gin.Context) (page, limit, offset int, ok bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		apperror.Respond(c, apperror.Validation("invalid page parameter"))
		return 0, 0, 0, false
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		apperror.Respond(c, apperror.Validation("invalid limit parameter"))
		return 0, 0, 0, false
	}
	return page, limit, (page - 1) * limit, true
}
