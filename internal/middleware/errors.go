package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIError is an error with the HTTP status and message sent to clients.
type APIError struct {
	Status      int
	Message     string
	IsBlocked   bool
	BlockReason string
	Err         error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

func NewError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

// Wrap attaches the cause of a failure to a client-facing message.
func Wrap(status int, message string, err error) *APIError {
	return &APIError{Status: status, Message: message, Err: err}
}

// BlockedError is returned to blocked users on login and on every
// authenticated request.
func BlockedError(reason string) *APIError {
	return &APIError{
		Status:      http.StatusForbidden,
		Message:     "Your account has been blocked",
		IsBlocked:   true,
		BlockReason: reason,
	}
}

// Abort records err for ErrorHandler and stops the handler chain.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler renders the last error recorded on the context as
// {message, stack?, isBlocked?, blockReason?}. stack carries the error
// chain and is only sent when development is true.
func ErrorHandler(log *zap.Logger, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			apiErr = Wrap(http.StatusInternalServerError, "Internal server error", err)
		}
		if apiErr.Status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.String("requestId", c.GetString(RequestIDKey)),
				zap.Error(err))
		}

		body := gin.H{"message": apiErr.Message}
		if apiErr.IsBlocked {
			body["isBlocked"] = true
			body["blockReason"] = apiErr.BlockReason
		}
		if development {
			body["stack"] = err.Error()
		}
		c.JSON(apiErr.Status, body)
	}
}

// NotFound answers unknown routes through ErrorHandler.
func NotFound(c *gin.Context) {
	Abort(c, NewError(http.StatusNotFound, "Not found - "+c.Request.URL.Path))
}
