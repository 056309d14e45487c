package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leaguevault/leaguevault/cmd/leaguevault/service"
	"github.com/leaguevault/leaguevault/common/bootstrap"
)

// SyncHandler handles sync-related requests
type SyncHandler struct {
	components *bootstrap.Components
	sync       *service.SyncService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(components *bootstrap.Components, sync *service.SyncService) *SyncHandler {
	return &SyncHandler{
		components: components,
		sync:       sync,
	}
}

// SyncLeague syncs a single league-season
// POST /api/v1/sync/leagues/:id
func (h *SyncHandler) SyncLeague(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()
	h.components.Logger.WithContext(ctx).Info("league sync requested", "league_id", id)

	report, err := h.sync.SyncLeague(ctx, id)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, report)
}

// SyncChain walks a league's season chain and syncs every reachable season,
// newest first. With no id the configured start league is used.
// POST /api/v1/sync/chains/:id
func (h *SyncHandler) SyncChain(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()
	h.components.Logger.WithContext(ctx).Info("chain sync requested", "start_league_id", id)

	report, err := h.sync.SyncChain(ctx, id)
	if err != nil {
		return errorResponse(c, err)
	}

	status := http.StatusOK
	if report.Error != "" {
		// Some seasons synced before chain resolution fell short
		status = http.StatusMultiStatus
	}
	return c.JSON(status, report)
}

// SyncPlayers refreshes the player directory from the host
// POST /api/v1/sync/players
func (h *SyncHandler) SyncPlayers(c echo.Context) error {
	ctx := c.Request().Context()
	h.components.Logger.WithContext(ctx).Info("player directory sync requested")

	report, err := h.sync.SyncPlayers(ctx)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, report)
}
