package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// APIResponse represents a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// SuccessResponse sends a successful response
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse sends an error response. Server errors keep the cause out of
// the body; it is logged by the request logger instead.
func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	response := APIResponse{
		Success: false,
		Message: message,
	}

	if err != nil {
		_ = c.Error(err)
		if statusCode < http.StatusInternalServerError {
			response.Error = err.Error()
		}
	}

	c.JSON(statusCode, response)
}

// AbortWithError is ErrorResponse for middleware.
func AbortWithError(c *gin.Context, statusCode int, message string, err error) {
	ErrorResponse(c, statusCode, message, err)
	c.Abort()
}

// ValidationErrorResponse sends a validation error response
func ValidationErrorResponse(c *gin.Context, err error) {
	var errors []string

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			errors = append(errors, getValidationErrorMessage(fieldError))
		}
	} else {
		errors = append(errors, err.Error())
	}

	c.JSON(http.StatusBadRequest, APIResponse{
		Success: false,
		Message: "Validation failed",
		Error:   errors,
	})
}

func getValidationErrorMessage(fieldError validator.FieldError) string {
	field := lowerFirst(fieldError.Field())
	param := fieldError.Param()

	switch fieldError.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return field + " is required when " + lowerFirst(strings.Fields(param)[0]) + " is " + strings.Join(strings.Fields(param)[1:], " ")
	case "email":
		return field + " must be a valid email address"
	case "min":
		if isString(fieldError) {
			return field + " must be at least " + param + " characters long"
		}
		return field + " must be at least " + param
	case "max":
		if isString(fieldError) {
			return field + " must be at most " + param + " characters long"
		}
		return field + " must be at most " + param
	case "gt":
		return field + " must be greater than " + param
	case "gte":
		return field + " must be greater than or equal to " + param
	case "oneof":
		return field + " must be one of: " + param
	case "dive", "unique":
		return field + " contains invalid values"
	default:
		return field + " is invalid"
	}
}

func isString(fieldError validator.FieldError) bool {
	kind := fieldError.Kind().String()
	return kind == "string" || kind == "slice"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// PaginationResponse represents a paginated response
type PaginationResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination clamps page and limit and derives the page count.
func NewPagination(page, limit int, total int64) Pagination {
	if limit < 1 {
		limit = 10
	}
	if page < 1 {
		page = 1
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// Offset is the number of items before the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PaginatedResponse sends a paginated response
func PaginatedResponse(c *gin.Context, statusCode int, message string, data interface{}, pagination Pagination) {
	c.JSON(statusCode, PaginationResponse{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: pagination,
	})
}
