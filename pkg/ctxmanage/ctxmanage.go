package ctxmanage

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type key string

const TraceIDKey key = "traceId"

// GetTraceIdOfRequest returns the trace id stored on the request context by
// the logger middleware, minting one if the middleware did not run.
func GetTraceIdOfRequest(c *gin.Context) string {
	ctx := c.Request.Context()
	traceId, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return uuid.NewString()
	}
	return traceId
}
