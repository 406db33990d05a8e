package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/amiecorso/top4/internal/config"
	"github.com/amiecorso/top4/internal/session"
)

type Server struct {
	manager  *session.Manager
	ws       *wsHub
	cfg      config.Config
	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

func New(manager *session.Manager, cfg config.Config) *Server {
	return &Server{
		manager: manager,
		ws:      newWSHub(),
		cfg:     cfg,
		timers:  make(map[string]*time.Timer),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms/{id}", s.handleGetRoom)
	mux.HandleFunc("GET /api/rooms/code/{code}", s.handleGetRoomByCode)
	mux.HandleFunc("POST /api/rooms/{id}/join", s.handleJoinRoom)
	mux.HandleFunc("POST /api/rooms/{id}/start", s.handleStartGame)
	mux.HandleFunc("POST /api/rooms/{id}/prompts", s.handleSubmitPrompt)
	mux.HandleFunc("POST /api/rooms/{id}/rankings", s.handleSubmitRanking)
	mux.HandleFunc("POST /api/rooms/{id}/ready", s.handleMarkReady)
	mux.HandleFunc("POST /api/rooms/{id}/advance", s.handleAdvanceRound)
	mux.HandleFunc("POST /api/rooms/{id}/void", s.handleVoidRound)
	mux.HandleFunc("POST /api/rooms/{id}/timer", s.handleRoundTimer)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /ws/rooms/{id}", s.handleWebsocket)
	return mux
}
