package server

import (
	"net/http"

	"github.com/existflow/ohm/internal/board"
	"github.com/existflow/ohm/internal/model"
	"github.com/labstack/echo/v4"
)

// ColumnResponse is one column with its ordered cards
type ColumnResponse struct {
	Status   model.Status    `json:"status"`
	Label    string          `json:"label"`
	Cards    []model.Card    `json:"cards"`
	Capacity *board.Capacity `json:"capacity,omitempty"`
}

// CreateCardRequest is the body of POST /cards
type CreateCardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	NextStep    string `json:"nextStep"`
	Energy      string `json:"energy"`
	Category    string `json:"category"`
}

// UpdateCardRequest is the body of PUT /cards/:id. Absent fields are kept.
type UpdateCardRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	NextStep      *string `json:"nextStep"`
	WhereILeftOff *string `json:"whereILeftOff"`
	Energy        *string `json:"energy"`
	Category      *string `json:"category"`
}

// MoveRequest is the body of POST /cards/:id/move
type MoveRequest struct {
	Status string  `json:"status"`
	Note   *string `json:"note"`
}

// ReorderRequest is the body of POST /reorder
type ReorderRequest struct {
	IDs     []string `json:"ids"`
	Touched string   `json:"touched"`
}

// CapacityRequest is the body of PUT /capacity/:status
type CapacityRequest struct {
	Capacity int `json:"capacity"`
}

// CategoryRequest is the body of POST /categories
type CategoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleBoard(c echo.Context) error {
	return c.JSON(http.StatusOK, s.board.Board())
}

func (s *Server) handleColumn(c echo.Context) error {
	status, err := model.ParseStatus(c.Param("status"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	b := s.board.Board()
	cards := board.ColumnCards(b, status)
	if cards == nil {
		cards = []model.Card{}
	}
	return c.JSON(http.StatusOK, ColumnResponse{
		Status:   status,
		Label:    status.String(),
		Cards:    cards,
		Capacity: board.ColumnCapacity(b, status),
	})
}

func (s *Server) handleCreateCard(c echo.Context) error {
	var req CreateCardRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	opts := []board.CardOption{
		board.WithDescription(req.Description),
		board.WithNextStep(req.NextStep),
		board.WithCategory(req.Category),
	}
	if req.Energy != "" {
		energy, err := model.ParseEnergy(req.Energy)
		if err != nil {
			return badRequest(c, err.Error())
		}
		opts = append(opts, board.WithEnergy(energy))
	}

	card, err := s.board.QuickAdd(req.Title, opts...)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, card)
}

func (s *Server) handleGetCard(c echo.Context) error {
	card, err := s.board.Card(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, card)
}

func (s *Server) handleUpdateCard(c echo.Context) error {
	var req UpdateCardRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	card, err := s.board.Card(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if req.Title != nil {
		card.Title = *req.Title
	}
	if req.Description != nil {
		card.Description = *req.Description
	}
	if req.NextStep != nil {
		card.NextStep = *req.NextStep
	}
	if req.WhereILeftOff != nil {
		card.WhereILeftOff = *req.WhereILeftOff
	}
	if req.Energy != nil {
		energy, err := model.ParseEnergy(*req.Energy)
		if err != nil {
			return badRequest(c, err.Error())
		}
		card.Energy = energy
	}
	if req.Category != nil {
		card.Category = *req.Category
	}

	updated, err := s.board.UpdateCard(card)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleMoveCard(c echo.Context) error {
	var req MoveRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	to, err := model.ParseStatus(req.Status)
	if err != nil {
		return badRequest(c, err.Error())
	}

	card, err := s.board.Move(c.Param("id"), to, req.Note)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, card)
}

func (s *Server) handleDeleteCard(c echo.Context) error {
	if err := s.board.DeleteCard(c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleReorder(c echo.Context) error {
	var req ReorderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(req.IDs) == 0 {
		return badRequest(c, "ids required")
	}

	if err := s.board.ReorderBatch(req.IDs, req.Touched); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSetCapacity(c echo.Context) error {
	status, err := model.ParseStatus(c.Param("status"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req CapacityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.board.SetCapacity(status, req.Capacity); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, board.ColumnCapacity(s.board.Board(), status))
}

func (s *Server) handleAddCategory(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := s.board.AddCategory(req.Name); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, s.board.Board().Categories)
}

func (s *Server) handleRemoveCategory(c echo.Context) error {
	if err := s.board.RemoveCategory(c.Param("name")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
