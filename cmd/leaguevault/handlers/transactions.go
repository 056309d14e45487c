package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/leaguevault/leaguevault/cmd/leaguevault/service"
	"github.com/leaguevault/leaguevault/common/bootstrap"
)

// TransactionHandler handles ledger read requests
type TransactionHandler struct {
	components *bootstrap.Components
	query      *service.QueryService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(components *bootstrap.Components, query *service.QueryService) *TransactionHandler {
	return &TransactionHandler{
		components: components,
		query:      query,
	}
}

// ListTransactions returns one page of a league's cross-season ledger
// GET /api/v1/leagues/:id/transactions?seasons=2023,2024&types=trade&rosters=1,2&player=4046&page=1&page_size=25
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "league id is required",
		})
	}

	params := service.QueryParams{
		PlayerID: c.QueryParam("player"),
		Page:     intParam(c, "page", 1),
		PageSize: intParam(c, "page_size", 0),
	}

	var err error
	if params.Seasons, err = csvInts(c.QueryParam("seasons")); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "seasons must be a comma-separated list of years",
		})
	}
	if params.RosterIDs, err = csvInts(c.QueryParam("rosters")); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "rosters must be a comma-separated list of roster ids",
		})
	}
	params.Types = csvStrings(c.QueryParam("types"))

	page, err := h.query.Transactions(c.Request().Context(), id, params)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, page)
}

func intParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func csvInts(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func csvStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
