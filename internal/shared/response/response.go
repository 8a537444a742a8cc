package response

import (
	"time"

	"github.com/gin-gonic/gin"

	"feature-voting-backend/internal/shared/apperror"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
	Path      string      `json:"path"`
}

// Message is the body of mutations that report a text outcome
type Message struct {
	Message   string `json:"message"`
	VoteCount *int   `json:"vote_count,omitempty"`
}

// Success responses
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
	})
}

func OK(c *gin.Context, data interface{}) {
	Success(c, 200, data)
}

func Created(c *gin.Context, data interface{}) {
	Success(c, 201, data)
}

// Error responses
func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	ErrorWithDetails(c, statusCode, code, message, nil)
}

func ErrorWithDetails(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Path:      c.Request.URL.Path,
		},
	})
}

// AppError writes the payload of a classified error. Unexpected errors never expose their cause.
func AppError(c *gin.Context, appErr *apperror.Error) {
	var details interface{}
	if len(appErr.Fields) > 0 {
		details = appErr.Fields
	}
	message := appErr.Message
	if generic, ok := genericMessages[appErr.Kind]; ok {
		message = generic
	}
	ErrorWithDetails(c, appErr.Kind.Status(), appErr.Kind.Code(), message, details)
}

var genericMessages = map[apperror.Kind]string{
	apperror.Unexpected:          "An unexpected error occurred",
	apperror.ConstraintViolation: "Database constraint violation",
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, 404, "ROUTE_NOT_FOUND", message)
}
