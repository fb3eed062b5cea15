package response

import (
	"net/http"
	"reflect"
	"time"

	"github.com/gin-gonic/gin"
)

// Pagination metadata returned with paginated responses.
type Pagination struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	TotalPage   int   `json:"total_page"`
	Size        int   `json:"size"`
	HasNextPage bool  `json:"has_next_page"`
}

// pagedResponse is the envelope for paginated list responses.
type pagedResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// OK sends a 200 response. Arrays/slices are wrapped in {success, data: [...]}.
func OK(c *gin.Context, data interface{}) {
	if data != nil {
		v := reflect.ValueOf(data)
		if v.Kind() == reflect.Slice {
			c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
			return
		}
	}
	c.JSON(http.StatusOK, data)
}

// Paged sends a paginated response.
func Paged(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, pagedResponse{
		Success:    true,
		Data:       data,
		Pagination: pagination,
	})
}

// Created sends a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail sends an error response in the flat form consumed by the site's
// form frontend: {success:false, error, error_code, timestamp}.
func Fail(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"error":      message,
		"error_code": code,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// FailDebug is Fail with an extra debug payload, used in development only.
func FailDebug(c *gin.Context, status int, message, code string, debug interface{}) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"error":      message,
		"error_code": code,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"debug":      debug,
	})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, message, "bad_request")
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context) {
	Fail(c, http.StatusUnauthorized, "authentication required", "unauthorized")
}

// Forbidden sends a 403 error response.
func Forbidden(c *gin.Context) {
	Fail(c, http.StatusForbidden, "forbidden", "forbidden")
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context) {
	Fail(c, http.StatusNotFound, "not found", "not_found")
}

// NotFoundMsg sends a 404 error with a custom message.
func NotFoundMsg(c *gin.Context, message string) {
	Fail(c, http.StatusNotFound, message, "not_found")
}

// MethodNotAllowed sends a 405 error response.
func MethodNotAllowed(c *gin.Context) {
	Fail(c, http.StatusMethodNotAllowed, "method not allowed", "method_not_allowed")
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, err error) {
	Fail(c, http.StatusInternalServerError, err.Error(), "internal_error")
}

// UnprocessableEntity sends a 422 error response.
func UnprocessableEntity(c *gin.Context, message string) {
	Fail(c, http.StatusUnprocessableEntity, message, "unprocessable_entity")
}
