package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/izygear/service-reservation/internal/domain"
)

// errorBody is the structured error payload. Code distinguishes conflict and
// partial-write failures that share a status with plain validation errors.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a 200 response with the payload as-is.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created writes a 201 response with the payload as-is.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Paginated writes a 200 response with items and paging metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// BadRequest writes a 400 validation error.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION", Message: message})
}

// Error maps a domain error to its HTTP status. Conflicts return 400 with a
// distinguishable code so clients can tell them apart from plain validation
// failures. Unrecognized errors become generic 500s; internals are never
// exposed.
func Error(c *gin.Context, err error) {
	var (
		validationErr   *domain.ValidationError
		notFoundErr     *domain.NotFoundError
		conflictErr     *domain.ConflictError
		invalidStateErr *domain.InvalidStateError
		dependencyErr   *domain.DependencyError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION", Message: validationErr.Message})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: notFoundErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusBadRequest, errorBody{Code: "CONFLICT", Message: conflictErr.Message})
	case errors.As(err, &invalidStateErr):
		c.JSON(http.StatusBadRequest, errorBody{Code: "INVALID_STATE", Message: invalidStateErr.Error()})
	case errors.As(err, &dependencyErr):
		// The wrapped downstream error stays in the logs; clients only see
		// which step failed.
		c.JSON(http.StatusInternalServerError, errorBody{Code: "DEPENDENCY", Message: dependencyErr.Step + " failed"})
	default:
		c.JSON(http.StatusInternalServerError, errorBody{Code: "INTERNAL", Message: "internal server error"})
	}
}
