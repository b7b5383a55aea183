package server

import (
	"net/http"

	ohmsync "github.com/existflow/ohm/internal/sync"
	"github.com/labstack/echo/v4"
)

// SyncResponse is the response of POST /sync
type SyncResponse struct {
	OK     bool             `json:"ok"`
	Status ohmsync.Snapshot `json:"status"`
}

func (s *Server) handleSyncStatus(c echo.Context) error {
	if s.sync == nil {
		return c.JSON(http.StatusOK, ohmsync.Snapshot{})
	}
	return c.JSON(http.StatusOK, s.sync.Snapshot())
}

// handleSyncNow runs a manual merge against the remote file. It needs a
// connected session; connecting is interactive and stays on the CLI.
func (s *Server) handleSyncNow(c echo.Context) error {
	if s.sync == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "remote sync is not configured"})
	}
	snap := s.sync.Snapshot()
	if !snap.Connected {
		return c.JSON(http.StatusConflict, map[string]string{"error": "not connected to Google Drive"})
	}

	ok := s.sync.ManualSync(c.Request().Context())
	return c.JSON(http.StatusOK, SyncResponse{OK: ok, Status: s.sync.Snapshot()})
}
