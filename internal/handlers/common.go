package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"resto_backend/internal/services"
	"resto_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// parseIDParam extracts a positive int64 path parameter. On failure it writes
// the 400 response itself and returns false.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid "+name+" format.", "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// parsePagination reads page/page_size query parameters with defaults.
func parsePagination(c *gin.Context) (page, pageSize int, ok bool) {
	page, pageSize = 1, 20
	if pageStr := c.Query("page"); pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
				"Invalid page format.", "page must be a positive integer"))
			return 0, 0, false
		}
		page = p
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		ps, err := strconv.Atoi(pageSizeStr)
		if err != nil || ps <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
				"Invalid page_size format.", "page_size must be a positive integer"))
			return 0, 0, false
		}
		pageSize = ps
	}
	return page, pageSize, true
}

// actorFrom returns the authenticated username recorded on movements and
// documents. Routes behind AuthMiddleware always have it set.
func actorFrom(c *gin.Context) string {
	if username := c.GetString("username"); username != "" {
		return username
	}
	return "system"
}

// handleServiceError maps the service error taxonomy onto HTTP responses.
// Conflicts over entity state come back as 409, broken split partitions as
// 422, unknown entities as 404 and bad input as 400.
func handleServiceError(c *gin.Context, err error, operation string) {
	utils.LogError(err, operation)

	switch {
	case errors.Is(err, services.ErrTableNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrOrderItemNotFound),
		errors.Is(err, services.ErrInvoiceNotFound),
		errors.Is(err, services.ErrCatalogItemNotFound),
		errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrInventoryRecordNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
			"Resource not found.", err.Error()))

	case errors.Is(err, services.ErrInvalidTransition):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidTransition,
			"The requested state transition is not allowed.", err.Error()))

	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock,
			"Insufficient stock for one or more items.", err.Error()))

	case errors.Is(err, services.ErrConcurrentModification):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConcurrentModification,
			"The resource was modified concurrently. Retry with fresh state.", err.Error()))

	case errors.Is(err, services.ErrIncompleteSplit):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeIncompleteSplit,
			"Split partitions must cover every order item.", err.Error()))

	case errors.Is(err, services.ErrDuplicateAssignment):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeDuplicateAssignment,
			"An order item was assigned to more than one partition.", err.Error()))

	case errors.Is(err, services.ErrInvalidMovement):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeInvalidMovement,
			"Invalid inventory movement.", err.Error()))

	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Input validation failed.", err.Error()))

	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError,
			"An internal error occurred.", "Internal error"))
	}
}
