package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/huroufgame/hurouf/go/internal/models"
	"github.com/huroufgame/hurouf/go/internal/session"
	"github.com/huroufgame/hurouf/go/internal/store"
	"github.com/huroufgame/hurouf/go/internal/turn"
)

// SessionService defines what the API needs from the session layer
type SessionService interface {
	CreateSession(ctx context.Context) (*session.Session, error)
	JoinSession(ctx context.Context, code string) (*session.Session, error)
	PlayAgain(ctx context.Context, roomID uuid.UUID) (*models.Game, error)
	EndSession(ctx context.Context, roomID uuid.UUID) error
}

// GameReader defines what the API needs from the games layer
type GameReader interface {
	GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error)
}

// APIHandler serves the JSON API: session bootstrap for all clients and
// the selection flow endpoints for hosts.
type APIHandler struct {
	sessions SessionService
	games    GameReader
	flows    *turn.Registry
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(sessions SessionService, games GameReader, flows *turn.Registry) *APIHandler {
	return &APIHandler{
		sessions: sessions,
		games:    games,
		flows:    flows,
	}
}

// RegisterRoutes registers the JSON API routes with an HTTP mux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.handleCreateSession)
	mux.HandleFunc("POST /api/sessions/join", h.handleJoinSession)
	mux.HandleFunc("GET /api/games/{id}", h.handleGetGame)
	mux.HandleFunc("POST /api/games/{id}/select", h.handleSelectCell)
	mux.HandleFunc("POST /api/games/{id}/reveal", h.handleReveal)
	mux.HandleFunc("POST /api/games/{id}/change-question", h.handleChangeQuestion)
	mux.HandleFunc("POST /api/games/{id}/answer", h.handleAnswerCell)
	mux.HandleFunc("POST /api/games/{id}/cancel", h.handleCancel)
	mux.HandleFunc("POST /api/rooms/{id}/play-again", h.handlePlayAgain)
	mux.HandleFunc("DELETE /api/rooms/{id}", h.handleEndSession)
}

type sessionResponse struct {
	Room models.Room `json:"room"`
	Game models.Game `json:"game"`
}

type joinRequest struct {
	Code string `json:"code"`
}

type selectRequest struct {
	CellID int `json:"cellId"`
}

type selectResponse struct {
	CellID int    `json:"cellId"`
	Letter string `json:"letter"`
	Answer string `json:"answer"`
}

type answerRequest struct {
	Team string `json:"team"`
}

type gameResponse struct {
	models.Game
	GreenScore  int `json:"greenScore"`
	PurpleScore int `json:"purpleScore"`
}

func (h *APIHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.CreateSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Room: s.Room, Game: s.Game})
}

func (h *APIHandler) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s, err := h.sessions.JoinSession(r.Context(), session.SanitizeJoinCode(req.Code))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Room: s.Room, Game: s.Game})
}

func (h *APIHandler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathUUID(w, r)
	if !ok {
		return
	}

	game, err := h.games.GetGame(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}

	green, purple := game.Board.Scores()
	writeJSON(w, http.StatusOK, gameResponse{Game: *game, GreenScore: green, PurpleScore: purple})
}

func (h *APIHandler) handleSelectCell(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathUUID(w, r)
	if !ok {
		return
	}

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	flow := h.flows.Flow(gameID)
	if err := flow.SelectCell(r.Context(), req.CellID); err != nil {
		writeError(w, err)
		return
	}

	resp := selectResponse{CellID: req.CellID, Answer: flow.Answer()}
	if cell := flow.SelectedCell(); cell != nil {
		resp.Letter = cell.Letter
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) handleReveal(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathUUID(w, r)
	if !ok {
		return
	}

	if err := h.flows.Flow(gameID).Reveal(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) handleChangeQuestion(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathUUID(w, r)
	if !ok {
		return
	}

	flow := h.flows.Flow(gameID)
	if err := flow.ChangeQuestion(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	resp := selectResponse{Answer: flow.Answer()}
	if cell := flow.SelectedCell(); cell != nil {
		resp.CellID = cell.ID
		resp.Letter = cell.Letter
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) handleAnswerCell(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathUUID(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	team, err := parseTeam(req.Team)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.flows.Flow(gameID).AnswerCell(r.Context(), team); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathUUID(w, r)
	if !ok {
		return
	}

	if err := h.flows.Flow(gameID).Cancel(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) handlePlayAgain(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathUUID(w, r)
	if !ok {
		return
	}

	game, err := h.sessions.PlayAgain(r.Context(), roomID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

func (h *APIHandler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathUUID(w, r)
	if !ok {
		return
	}

	if err := h.sessions.EndSession(r.Context(), roomID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid id format", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func parseTeam(s string) (models.Team, error) {
	switch models.Team(s) {
	case models.TeamGreen:
		return models.TeamGreen, nil
	case models.TeamPurple:
		return models.TeamPurple, nil
	case models.TeamNone:
		return models.TeamNone, nil
	default:
		return "", fmt.Errorf("%w: unknown team %q", store.ErrInvalid, s)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, turn.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, store.ErrWriteFailed):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	http.Error(w, err.Error(), status)
}
