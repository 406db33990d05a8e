package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/amiecorso/top4/internal/game"
	"github.com/amiecorso/top4/internal/lock"
	"github.com/amiecorso/top4/internal/session"
)

type createRoomRequest struct {
	Name                 string   `json:"name"`
	MaxRounds            int      `json:"max_rounds"`
	NewPromptPercentage  int      `json:"new_prompt_percentage"`
	Categories           []string `json:"categories"`
	RoundDurationSeconds int      `json:"round_duration_seconds"`
}

type joinRequest struct {
	Name string `json:"name"`
}

type playerRequest struct {
	PlayerID string `json:"player_id"`
}

type promptRequest struct {
	PlayerID string `json:"player_id"`
	Text     string `json:"text"`
}

type rankingRequest struct {
	PlayerID string `json:"player_id"`
	Ranking  []int  `json:"ranking"`
}

type timerRequest struct {
	PlayerID                string `json:"player_id"`
	Action                  string `json:"action"`
	CurrentRemainingSeconds int    `json:"current_remaining_seconds"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, category := range req.Categories {
		if err := requestValidator().Var(category, "category"); err != nil {
			writeError(w, http.StatusBadRequest, "unknown prompt category")
			return
		}
	}
	if req.MaxRounds == 0 {
		req.MaxRounds = s.cfg.DefaultMaxRounds
	}
	if req.RoundDurationSeconds == 0 {
		req.RoundDurationSeconds = s.cfg.RoundDurationSeconds
	}
	room, err := s.manager.CreateRoom(r.Context(), session.CreateRoomParams{
		HostName:             name,
		MaxRounds:            req.MaxRounds,
		Categories:           req.Categories,
		NewPromptPercentage:  req.NewPromptPercentage,
		RoundDurationSeconds: req.RoundDurationSeconds,
	})
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"room":      snapshot(room),
		"player_id": room.Host,
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, ok := s.manager.GetRoom(r.Context(), r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(room))
}

func (s *Server) handleGetRoomByCode(w http.ResponseWriter, r *http.Request) {
	room, ok := s.manager.GetRoomByCode(r.Context(), r.PathValue("code"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(room))
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	var req joinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	player, err := s.manager.JoinRoom(r.Context(), roomID, name)
	if errors.Is(err, session.ErrNameTaken) {
		payload := map[string]any{"error": "name already taken"}
		if room, ok := s.manager.GetRoom(r.Context(), roomID); ok {
			payload["suggestion"] = game.SuggestName(room, name)
		}
		writeJSON(w, http.StatusConflict, payload)
		return
	}
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	room, _ := s.manager.GetRoom(r.Context(), roomID)
	writeJSON(w, http.StatusOK, map[string]any{
		"player_id": player.ID,
		"room":      snapshot(room),
	})
	s.broadcastRoom(r.Context(), roomID)
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	var req playerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	room, ok := s.manager.GetRoom(r.Context(), roomID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if req.PlayerID != room.Host {
		writeError(w, http.StatusForbidden, "only the host can start the game")
		return
	}
	started, err := s.manager.StartGame(r.Context(), roomID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if !started {
		writeError(w, http.StatusConflict, "need at least 2 players in a waiting room")
		return
	}
	room, _ = s.manager.GetRoom(r.Context(), roomID)
	if room.Status == game.StatusPlaying {
		s.scheduleRoundDeadline(room)
	}
	writeJSON(w, http.StatusOK, snapshot(room))
	s.broadcastRoom(r.Context(), roomID)
}

func (s *Server) handleSubmitPrompt(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	var req promptRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id and text are required")
		return
	}
	text, err := validatePrompt(req.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	remaining, err := s.manager.SubmitPlayerPrompt(r.Context(), roomID, req.PlayerID, text)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	payload := map[string]any{"remaining": remaining}
	if room, ok := s.manager.GetRoom(r.Context(), roomID); ok {
		payload["status"] = room.Status
		if room.Status == game.StatusPlaying {
			s.scheduleRoundDeadline(room)
		}
	}
	writeJSON(w, http.StatusOK, payload)
	s.broadcastRoom(r.Context(), roomID)
}

func (s *Server) handleSubmitRanking(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	var req rankingRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id and ranking are required")
		return
	}
	if err := validateRankingValues(req.Ranking); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	accepted, err := s.manager.SubmitRanking(r.Context(), roomID, req.PlayerID, req.Ranking)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if !accepted {
		writeError(w, http.StatusConflict, "ranking not accepted")
		return
	}
	revealed := false
	if s.manager.CanReveal(r.Context(), roomID) {
		if _, err := s.manager.CalculateScores(r.Context(), roomID); err != nil {
			log.Printf("reveal failed room_id=%s error=%v", roomID, err)
		} else {
			revealed = true
			s.cancelRoundDeadline(roomID)
		}
	}
	room, _ := s.manager.GetRoom(r.Context(), roomID)
	payload := map[string]any{
		"accepted": true,
		"revealed": revealed,
	}
	if room != nil {
		payload["room"] = snapshot(room)
	}
	writeJSON(w, http.StatusOK, payload)
	s.broadcastRoom(r.Context(), roomID)
}

func (s *Server) handleMarkReady(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	var req playerRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	advanced, readyCount, err := s.manager.MarkPlayerReady(r.Context(), roomID, req.PlayerID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if advanced {
		if room, ok := s.manager.GetRoom(r.Context(), roomID); ok {
			s.scheduleRoundDeadline(room)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"advanced":    advanced,
		"ready_count": readyCount,
	})
	s.broadcastRoom(r.Context(), roomID)
}

func (s *Server) handleAdvanceRound(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	if _, hostOK := s.requireHost(w, r, roomID); !hostOK {
		return
	}
	advanced, err := s.manager.AdvanceToNextRound(r.Context(), roomID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	payload := map[string]any{"advanced": advanced}
	if room, ok := s.manager.GetRoom(r.Context(), roomID); ok {
		payload["room"] = snapshot(room)
		if advanced {
			s.scheduleRoundDeadline(room)
		} else {
			s.cancelRoundDeadline(roomID)
		}
	}
	writeJSON(w, http.StatusOK, payload)
	s.broadcastRoom(r.Context(), roomID)
}

func (s *Server) handleVoidRound(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	if _, hostOK := s.requireHost(w, r, roomID); !hostOK {
		return
	}
	voided, err := s.manager.VoidCurrentRound(r.Context(), roomID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if !voided {
		writeError(w, http.StatusConflict, "round cannot be voided")
		return
	}
	s.cancelRoundDeadline(roomID)
	room, ok := s.manager.GetRoom(r.Context(), roomID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(room))
	s.broadcastRoom(r.Context(), roomID)
}

func (s *Server) handleRoundTimer(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	var req timerRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id and action are required")
		return
	}
	room, ok := s.manager.GetRoom(r.Context(), roomID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if req.PlayerID != room.Host {
		writeError(w, http.StatusForbidden, "only the host can control the timer")
		return
	}
	endMs, err := s.manager.SetRoundTimer(r.Context(), roomID, req.Action, req.CurrentRemainingSeconds)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.scheduleDeadlineAt(roomID, room.CurrentRound, endMs)
	writeJSON(w, http.StatusOK, map[string]any{
		"manual_timer_end_time": endMs,
	})
	s.broadcastRoom(r.Context(), roomID)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	keys := game.SortedCategoryKeys()
	categories := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		categories = append(categories, map[string]any{
			"key":     key,
			"label":   game.CategoryNames[key],
			"prompts": game.CategoryCount(key),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
		"default":    game.DefaultCategories,
	})
}

func (s *Server) requireHost(w http.ResponseWriter, r *http.Request, roomID string) (*game.Room, bool) {
	var req playerRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return nil, false
	}
	room, ok := s.manager.GetRoom(r.Context(), roomID)
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	if req.PlayerID != room.Host {
		writeError(w, http.StatusForbidden, "host only")
		return nil, false
	}
	return room, true
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrRoomNotFound), errors.Is(err, session.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrRoomStarted),
		errors.Is(err, session.ErrNameTaken),
		errors.Is(err, session.ErrWrongStatus),
		errors.Is(err, session.ErrQuotaReached):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, lock.ErrLockTimeout):
		writeError(w, http.StatusServiceUnavailable, "room is busy, try again")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
