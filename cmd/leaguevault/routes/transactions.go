package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/leaguevault/leaguevault/cmd/leaguevault/container"
	"github.com/leaguevault/leaguevault/cmd/leaguevault/handlers"
)

// RegisterTransactionRoutes registers the ledger read routes
func RegisterTransactionRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewTransactionHandler(c.Components, c.QueryService)

	leagues := e.Group("/api/v1/leagues")
	{
		leagues.GET("/:id/transactions", h.ListTransactions) // GET /api/v1/leagues/{league_id}/transactions
	}
}
