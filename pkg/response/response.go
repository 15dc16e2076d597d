package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
)

type APIResponse[T any] struct {
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      T         `json:"data,omitempty"`
	Meta      any       `json:"meta,omitempty"`
	Error     any       `json:"error,omitempty"`
}

// ErrorBody is the error member of a failed response.
type ErrorBody struct {
	Kind    string            `json:"kind"`
	Title   string            `json:"title"`
	Details map[string]string `json:"details,omitempty"`
}

func Success[T any](c *gin.Context, status int, data T, message string, meta any) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: c.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
}

func Error[T any](c *gin.Context, status int, message string, err any) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: c.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	}
}

// OK writes a success envelope.
func OK[T any](c *gin.Context, status int, data T, message string) {
	resp := Success(c, status, data, message, nil)
	c.JSON(resp.Status, resp)
}

// Abort writes an error envelope and stops the handler chain.
func Abort(c *gin.Context, status int, message string, body any) {
	resp := Error[any](c, status, message, body)
	c.AbortWithStatusJSON(resp.Status, resp)
}

// FromError maps an error to a response. Domain errors use their kind's
// status and message; anything else is a 500 with a generic message and is
// attached to the gin context for logging.
func FromError(c *gin.Context, err error) {
	var de *domainerr.Error
	if errors.As(err, &de) {
		Abort(c, de.Kind.HTTPStatus(), de.Message, ErrorBody{Kind: string(de.Kind), Title: de.Kind.Title()})
		return
	}
	_ = c.Error(err)
	Abort(c, http.StatusInternalServerError, "internal server error", ErrorBody{Kind: "internal", Title: "Internal Server Error"})
}

// Invalid reports a request that failed binding or validation.
func Invalid(c *gin.Context, details map[string]string) {
	Abort(c, http.StatusBadRequest, "invalid request", ErrorBody{
		Kind:    string(domainerr.KindValidation),
		Title:   domainerr.KindValidation.Title(),
		Details: details,
	})
}
