package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusportal/admission/internal/shared/errors"
)

// APIResponse represents a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorInfo represents error information in API response
type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ThrottledResponseBody is the machine-parseable denial returned on 429.
// It keeps the APIResponse envelope and adds the quota fields at top level.
type ThrottledResponseBody struct {
	Success    bool       `json:"success"`
	Error      *ErrorInfo `json:"error"`
	Message    string     `json:"message"`
	Limit      int        `json:"limit"`
	Remaining  int        `json:"remaining"`
	ResetAt    int64      `json:"reset_at"`
	RetryAfter int        `json:"retry_after"`
}

// SuccessResponse sends a successful response with custom status code
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// ErrorResponse sends an error response with custom status code and message
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &ErrorInfo{
			Type:    "error",
			Message: message,
		},
	})
}

// ErrorResponseWithError sends an error response based on error type
func ErrorResponseWithError(c *gin.Context, err error) {
	var statusCode int
	var errorInfo ErrorInfo

	if appErr := errors.GetAppError(err); appErr != nil {
		statusCode = appErr.Code
		errorInfo = ErrorInfo{
			Type:    string(appErr.Type),
			Message: appErr.Message,
			Details: appErr.Details,
		}
	} else {
		// Non-AppError details are not exposed to clients
		statusCode = http.StatusInternalServerError
		errorInfo = ErrorInfo{
			Type:    string(errors.ErrorTypeInternal),
			Message: "Internal server error occurred",
		}
	}

	c.JSON(statusCode, APIResponse{
		Success: false,
		Error:   &errorInfo,
	})
}

// ThrottledResponse sends a 429 with the quota fields clients need to back off.
func ThrottledResponse(c *gin.Context, message string, limit, remaining int, resetAt int64, retryAfter int) {
	c.JSON(http.StatusTooManyRequests, ThrottledResponseBody{
		Success: false,
		Error: &ErrorInfo{
			Type:    string(errors.ErrorTypeThrottled),
			Message: message,
		},
		Message:    message,
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    resetAt,
		RetryAfter: retryAfter,
	})
}
