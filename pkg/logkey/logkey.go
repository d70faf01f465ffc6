package logkey

// Common keys for structured log attributes so log lines stay greppable.
const (
	TraceID = "TRACE ID"
	ERROR   = "ERROR"
	UserID  = "UserID"
	BookID  = "BookID"
	OrderID = "OrderID"
)
