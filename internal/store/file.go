package store

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/amiecorso/top4/internal/game"
)

// FileStore keeps every room in a single JSON file, written atomically
// via a temp file rename. Suited to single-process deployments.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (map[string]*game.Room, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("room store load failed path=%s error=%v", s.path, err)
		}
		return make(map[string]*game.Room), nil
	}
	rooms := make(map[string]*game.Room)
	if err := json.Unmarshal(data, &rooms); err != nil {
		log.Printf("room store corrupt path=%s error=%v", s.path, err)
		return make(map[string]*game.Room), nil
	}
	return rooms, nil
}

func (s *FileStore) Save(ctx context.Context, rooms map[string]*game.Room) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rooms, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
