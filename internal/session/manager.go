// Package session owns the room lifecycle: create, join, start, the
// per-round commit/reveal protocol, and game completion. Every mutating
// operation runs load-mutate-save under the per-room lock so concurrent
// calls against one room serialize; reads are lock-free and may be
// slightly stale for polling clients.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/amiecorso/top4/internal/game"
	"github.com/amiecorso/top4/internal/lock"
	"github.com/amiecorso/top4/internal/store"

	"github.com/google/uuid"
)

const codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

type Manager struct {
	store  store.RoomStore
	locker lock.RoomLocker

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewManager(roomStore store.RoomStore, locker lock.RoomLocker) *Manager {
	return &Manager{
		store:  roomStore,
		locker: locker,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateRoomParams are validated before any state is written.
type CreateRoomParams struct {
	HostName             string
	MaxRounds            int
	Categories           []string
	NewPromptPercentage  int
	RoundDurationSeconds int
}

func (m *Manager) CreateRoom(ctx context.Context, params CreateRoomParams) (*game.Room, error) {
	hostName := strings.TrimSpace(params.HostName)
	if hostName == "" {
		return nil, fmt.Errorf("host name is required")
	}
	if params.MaxRounds < game.MinRounds || params.MaxRounds > game.MaxRounds {
		return nil, fmt.Errorf("max rounds must be between %d and %d", game.MinRounds, game.MaxRounds)
	}
	if params.NewPromptPercentage < 0 || params.NewPromptPercentage > 100 {
		return nil, fmt.Errorf("new prompt percentage must be between 0 and 100")
	}
	if params.RoundDurationSeconds < 0 {
		return nil, fmt.Errorf("round duration must not be negative")
	}
	categories := params.Categories
	if len(categories) == 0 {
		categories = game.DefaultCategories
	}
	for _, key := range categories {
		if !game.ValidCategory(key) {
			return nil, fmt.Errorf("unknown prompt category %q", key)
		}
	}

	roomID := uuid.NewString()
	hostID := uuid.NewString()
	room := &game.Room{
		ID:   roomID,
		Code: m.newRoomCode(),
		Players: []game.Player{
			{ID: hostID, Name: hostName, IsConnected: true},
		},
		Host:                 hostID,
		Status:               game.StatusWaiting,
		MaxRounds:            params.MaxRounds,
		SelectedCategories:   categories,
		NewPromptPercentage:  params.NewPromptPercentage,
		RoundDurationSeconds: params.RoundDurationSeconds,
		PlayerPrompts:        make(map[string][]string),
		CreatedAt:            time.Now().UTC(),
	}

	err := m.locker.WithLock(ctx, roomID, func() error {
		rooms, err := m.store.Load(ctx)
		if err != nil {
			rooms = make(map[string]*game.Room)
		}
		for taken(rooms, room.Code) {
			room.Code = m.newRoomCode()
		}
		rooms[roomID] = room
		return m.saveRooms(ctx, roomID, rooms)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("room created room_id=%s code=%s host=%s max_rounds=%d", room.ID, room.Code, hostName, room.MaxRounds)
	return room, nil
}

// GetRoom is a lock-free read; polling clients tolerate staleness.
func (m *Manager) GetRoom(ctx context.Context, roomID string) (*game.Room, bool) {
	rooms, err := m.store.Load(ctx)
	if err != nil {
		return nil, false
	}
	room, ok := rooms[roomID]
	return room, ok
}

func (m *Manager) GetRoomByCode(ctx context.Context, code string) (*game.Room, bool) {
	rooms, err := m.store.Load(ctx)
	if err != nil {
		return nil, false
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, room := range rooms {
		if room.Code == code {
			return room, true
		}
	}
	return nil, false
}

func (m *Manager) JoinRoom(ctx context.Context, roomID, playerName string) (*game.Player, error) {
	name := strings.TrimSpace(playerName)
	if name == "" {
		return nil, fmt.Errorf("player name is required")
	}
	var player game.Player
	err := m.withRoom(ctx, roomID, func(room *game.Room) error {
		if room.Status != game.StatusWaiting {
			return ErrRoomStarted
		}
		for i := range room.Players {
			if strings.EqualFold(room.Players[i].Name, name) {
				return ErrNameTaken
			}
		}
		player = game.Player{
			ID:          uuid.NewString(),
			Name:        name,
			IsConnected: true,
		}
		room.Players = append(room.Players, player)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("player joined room_id=%s player_id=%s player_name=%s", roomID, player.ID, name)
	return &player, nil
}

// StartGame transitions waiting -> prompt_submission when player-written
// prompts are required, or straight to playing otherwise. It reports
// false without error when the room is absent, already started, or has
// fewer than two players.
func (m *Manager) StartGame(ctx context.Context, roomID string) (bool, error) {
	started := false
	err := m.withRoom(ctx, roomID, func(room *game.Room) error {
		if room.Status != game.StatusWaiting || len(room.Players) < 2 {
			return nil
		}
		dist := game.CalculateDistribution(len(room.Players), room.MaxRounds, room.NewPromptPercentage)
		room.RequiredPromptsPerPlayer = dist.PromptsPerPlayer
		if room.PlayerPrompts == nil {
			room.PlayerPrompts = make(map[string][]string)
		}
		if dist.NewPromptsRequired > 0 {
			room.Status = game.StatusPromptSubmission
			started = true
			log.Printf("room entered prompt submission room_id=%s prompts_per_player=%d", room.ID, dist.PromptsPerPlayer)
			return nil
		}
		if err := m.beginPlay(room); err != nil {
			return err
		}
		started = true
		return nil
	})
	if errors.Is(err, ErrRoomNotFound) {
		return false, nil
	}
	return started, err
}

// SubmitPlayerPrompt records one submission and reports how many the
// player still owes. Filling the last quota synchronously builds the
// final pool and starts round 1.
func (m *Manager) SubmitPlayerPrompt(ctx context.Context, roomID, playerID, text string) (int, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, fmt.Errorf("prompt text is required")
	}
	remaining := 0
	err := m.withRoom(ctx, roomID, func(room *game.Room) error {
		if room.Status != game.StatusPromptSubmission {
			return ErrWrongStatus
		}
		if _, ok := room.FindPlayer(playerID); !ok {
			return ErrPlayerNotFound
		}
		if room.PlayerPrompts == nil {
			room.PlayerPrompts = make(map[string][]string)
		}
		if len(room.PlayerPrompts[playerID]) >= room.RequiredPromptsPerPlayer {
			return ErrQuotaReached
		}
		room.PlayerPrompts[playerID] = append(room.PlayerPrompts[playerID], trimmed)
		remaining = room.RequiredPromptsPerPlayer - len(room.PlayerPrompts[playerID])

		for _, player := range room.Players {
			if len(room.PlayerPrompts[player.ID]) < room.RequiredPromptsPerPlayer {
				return nil
			}
		}
		return m.beginPlay(room)
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// UpdateRoom persists a caller-mutated room under the room lock. Escape
// hatch for the boundary layer (timer control); the record is replaced
// wholesale.
func (m *Manager) UpdateRoom(ctx context.Context, room *game.Room) error {
	return m.locker.WithLock(ctx, room.ID, func() error {
		rooms, err := m.store.Load(ctx)
		if err != nil {
			rooms = make(map[string]*game.Room)
		}
		rooms[room.ID] = room
		return m.saveRooms(ctx, room.ID, rooms)
	})
}

// beginPlay builds the idea pool, moves the room to playing, and creates
// round 1. Caller holds the room lock.
func (m *Manager) beginPlay(room *game.Room) error {
	if err := m.buildPromptPool(room); err != nil {
		return err
	}
	room.Status = game.StatusPlaying
	room.CurrentRound = 1
	if err := m.appendRound(room); err != nil {
		return err
	}
	log.Printf("room started room_id=%s players=%d ideas=%d", room.ID, len(room.Players), len(room.Ideas))
	return nil
}

// buildPromptPool concatenates every player's submissions (in join order)
// with a shuffled sample of catalog prompts from the selected categories,
// and resets the used-idea tracking.
func (m *Manager) buildPromptPool(room *game.Room) error {
	dist := game.CalculateDistribution(len(room.Players), room.MaxRounds, room.NewPromptPercentage)
	pool := make([]string, 0, dist.TotalPromptsNeeded)
	for _, player := range room.Players {
		pool = append(pool, room.PlayerPrompts[player.ID]...)
	}
	needed := dist.TotalPromptsNeeded - len(pool)
	if needed > 0 {
		catalog := game.PromptsByCategories(room.SelectedCategories)
		if len(catalog) < needed {
			log.Printf("prompt catalog short room_id=%s needed=%d available=%d", room.ID, needed, len(catalog))
			needed = len(catalog)
		}
		m.rngMu.Lock()
		sample, err := game.SamplePrompts(m.rng, catalog, needed)
		m.rngMu.Unlock()
		if err != nil {
			return err
		}
		pool = append(pool, sample...)
	}
	if len(pool) < game.IdeasPerRound {
		return fmt.Errorf("prompt pool has %d entries, need at least %d", len(pool), game.IdeasPerRound)
	}
	room.Ideas = pool
	room.UsedIdeas = nil
	return nil
}

// withRoom runs fn against the loaded room and writes the whole room set
// back, all under the per-room lock. A failed save is surfaced so the
// caller can retry; fn errors skip the save entirely.
func (m *Manager) withRoom(ctx context.Context, roomID string, fn func(room *game.Room) error) error {
	return m.locker.WithLock(ctx, roomID, func() error {
		rooms, err := m.store.Load(ctx)
		if err != nil {
			rooms = make(map[string]*game.Room)
		}
		room, ok := rooms[roomID]
		if !ok {
			return ErrRoomNotFound
		}
		if err := fn(room); err != nil {
			return err
		}
		return m.saveRooms(ctx, roomID, rooms)
	})
}

func (m *Manager) saveRooms(ctx context.Context, roomID string, rooms map[string]*game.Room) error {
	if err := m.store.Save(ctx, rooms); err != nil {
		log.Printf("room save failed room_id=%s error=%v", roomID, err)
		return err
	}
	return nil
}

func (m *Manager) newRoomCode() string {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	code := make([]byte, 4)
	for i := range code {
		code[i] = codeLetters[m.rng.Intn(len(codeLetters))]
	}
	return string(code)
}

func taken(rooms map[string]*game.Room, code string) bool {
	for _, room := range rooms {
		if room.Code == code {
			return true
		}
	}
	return false
}
