package apperror

import (
	"time"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Timestamp string         `json:"timestamp"`
	Path      string         `json:"path"`
	Status    int            `json:"status"`
	Code      Code           `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details"`
}

// Respond writes the uniform error envelope and aborts the request.
func Respond(c *gin.Context, err error) {
	e := From(err)
	c.AbortWithStatusJSON(e.Status, envelope{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
		Status:    e.Status,
		Code:      e.Code,
		Message:   e.Message,
		Details:   e.Details,
	})
}
