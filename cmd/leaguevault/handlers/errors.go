package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leaguevault/leaguevault/common/errs"
)

// errorResponse maps service errors onto HTTP statuses. The ordering matters:
// a not-found from the host API wraps both sentinel kinds, and the more
// specific condition wins.
func errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrSyncInProgress):
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error": err.Error(),
		})
	case errs.IsNotFound(err):
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "league not found",
		})
	case errs.IsConfig(err):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	case errs.IsExternalAPI(err):
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"error": "league host unavailable",
		})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "internal error",
		})
	}
}
