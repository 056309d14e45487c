package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/leaguevault/leaguevault/cmd/leaguevault/container"
	"github.com/leaguevault/leaguevault/cmd/leaguevault/handlers"
)

// RegisterSyncRoutes registers the sync trigger routes
func RegisterSyncRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewSyncHandler(c.Components, c.SyncService)

	sync := e.Group("/api/v1/sync")
	{
		sync.POST("/leagues/:id", h.SyncLeague) // POST /api/v1/sync/leagues/{league_id}
		sync.POST("/chains", h.SyncChain)       // POST /api/v1/sync/chains (configured start league)
		sync.POST("/chains/:id", h.SyncChain)   // POST /api/v1/sync/chains/{league_id}
		sync.POST("/players", h.SyncPlayers)    // POST /api/v1/sync/players
	}
}
