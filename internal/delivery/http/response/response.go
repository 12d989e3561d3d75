package response

import (
	"candidate-tracker-backend/pkg/pagination"

	"github.com/gin-gonic/gin"
)

// Response standardizes the API JSON success response
type Response struct {
	Success    bool                   `json:"success"`
	Message    string                 `json:"message,omitempty"`
	Count      *int                   `json:"count,omitempty"`
	Pagination *pagination.Descriptor `json:"pagination,omitempty"`
	Data       interface{}            `json:"data"`
}

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	Success   bool     `json:"success"`
	Error     string   `json:"error"`
	Code      string   `json:"code,omitempty"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// Success sends a success response
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Collection sends a list with its record count
func Collection(c *gin.Context, message string, count int, data interface{}) {
	c.JSON(200, Response{
		Success: true,
		Message: message,
		Count:   &count,
		Data:    data,
	})
}

// Page sends one page of a list with next/prev descriptors
func Page(c *gin.Context, message string, count int, p pagination.Descriptor, data interface{}) {
	c.JSON(200, Response{
		Success:    true,
		Message:    message,
		Count:      &count,
		Pagination: &p,
		Data:       data,
	})
}

// Error sends an error response
func Error(c *gin.Context, code int, message, kind string, details []string) {
	c.JSON(code, ErrorResponse{
		Success:   false,
		Error:     message,
		Code:      kind,
		Details:   details,
		RequestID: c.GetString("RequestID"),
	})
}
