package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/amiecorso/top4/internal/game"
)

// MemoryStore holds rooms in process memory. Rooms are deep-copied on
// both Load and Save so callers never share pointers with the store.
type MemoryStore struct {
	mu    sync.Mutex
	rooms map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context) (map[string]*game.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make(map[string]*game.Room, len(s.rooms))
	for id, data := range s.rooms {
		var room game.Room
		if err := json.Unmarshal(data, &room); err != nil {
			continue
		}
		rooms[id] = &room
	}
	return rooms, nil
}

func (s *MemoryStore) Save(ctx context.Context, rooms map[string]*game.Room) error {
	next := make(map[string][]byte, len(rooms))
	for id, room := range rooms {
		data, err := json.Marshal(room)
		if err != nil {
			return err
		}
		next[id] = data
	}
	s.mu.Lock()
	s.rooms = next
	s.mu.Unlock()
	return nil
}
