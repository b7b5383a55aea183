// Package server exposes the board over a small local JSON API
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/existflow/ohm/internal/board"
	"github.com/existflow/ohm/internal/model"
	ohmsync "github.com/existflow/ohm/internal/sync"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Board is the board state the API reads and mutates
type Board interface {
	Board() model.Board
	Card(id string) (model.Card, error)
	QuickAdd(title string, opts ...board.CardOption) (model.Card, error)
	Move(id string, to model.Status, note *string) (model.Card, error)
	UpdateCard(card model.Card) (model.Card, error)
	DeleteCard(id string) error
	ReorderBatch(orderedIDs []string, touchedID string) error
	SetCapacity(status model.Status, n int) error
	AddCategory(name string) error
	RemoveCategory(name string) error
}

// Syncer reports and triggers remote sync
type Syncer interface {
	Snapshot() ohmsync.Snapshot
	ManualSync(ctx context.Context) bool
}

// Server is the local board API
type Server struct {
	board   Board
	sync    Syncer
	origins []string
	echo    *echo.Echo
}

// Option configures a Server
type Option func(*Server)

// WithAllowedOrigins lets browser pages served from origins call the API.
// Without it no CORS headers are sent and cross-origin reads are refused.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// New creates a new server. sync may be nil when remote sync is not set up.
func New(b Board, sync Syncer, opts ...Option) *Server {
	s := &Server{
		board: b,
		sync:  sync,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if len(s.origins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		}))
	}
	e.Use(allowOrigins(s.origins))

	// Health check
	e.GET("/health", s.handleHealth)

	// API v1
	api := e.Group("/api/v1")

	api.GET("/board", s.handleBoard)
	api.GET("/columns/:status", s.handleColumn)

	api.POST("/cards", s.handleCreateCard)
	api.GET("/cards/:id", s.handleGetCard)
	api.PUT("/cards/:id", s.handleUpdateCard)
	api.POST("/cards/:id/move", s.handleMoveCard)
	api.DELETE("/cards/:id", s.handleDeleteCard)
	api.POST("/reorder", s.handleReorder)

	api.PUT("/capacity/:status", s.handleSetCapacity)
	api.POST("/categories", s.handleAddCategory)
	api.DELETE("/categories/:name", s.handleRemoveCategory)

	api.GET("/sync", s.handleSyncStatus)
	api.POST("/sync", s.handleSyncNow)

	s.echo = e
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
