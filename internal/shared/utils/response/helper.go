package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// Success sends a success response with data
func Success(c *gin.Context, code int, message string, data interface{}) {
	RespondJSON(c, "success", code, message, data, nil)
}

// Error sends an error response
func Error(c *gin.Context, code int, message string) {
	RespondJSON(c, "error", code, message, nil, nil)
}

// ValidationError sends a 400 with binding details
func ValidationError(c *gin.Context, details interface{}) {
	RespondJSON(c, "error", http.StatusBadRequest, "validation failed", nil, details)
}
