package store

import (
	"context"
	"encoding/json"
	"log"

	"github.com/amiecorso/top4/internal/db"
	"github.com/amiecorso/top4/internal/game"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore keeps one row per room with the engine state as a JSON
// payload. Save upserts every live room and removes rows for rooms that
// no longer exist, so the record set mirrors the in-memory map.
type PostgresStore struct {
	conn *gorm.DB
}

func NewPostgresStore(conn *gorm.DB) *PostgresStore {
	return &PostgresStore{conn: conn}
}

func (s *PostgresStore) Load(ctx context.Context) (map[string]*game.Room, error) {
	var records []db.Room
	if err := s.conn.WithContext(ctx).Find(&records).Error; err != nil {
		log.Printf("room store load failed backend=postgres error=%v", err)
		return make(map[string]*game.Room), nil
	}
	rooms := make(map[string]*game.Room, len(records))
	for _, record := range records {
		var room game.Room
		if err := json.Unmarshal(record.Data, &room); err != nil {
			log.Printf("room record corrupt room_id=%s error=%v", record.ID, err)
			continue
		}
		rooms[record.ID] = &room
	}
	return rooms, nil
}

func (s *PostgresStore) Save(ctx context.Context, rooms map[string]*game.Room) error {
	ids := make([]string, 0, len(rooms))
	for id, room := range rooms {
		data, err := json.Marshal(room)
		if err != nil {
			return err
		}
		record := db.Room{
			ID:     id,
			Code:   room.Code,
			Status: room.Status,
			Data:   datatypes.JSON(data),
		}
		err = s.conn.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "status", "data", "updated_at"}),
		}).Create(&record).Error
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return s.conn.WithContext(ctx).
			Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&db.Room{}).Error
	}
	return s.conn.WithContext(ctx).Where("id NOT IN ?", ids).Delete(&db.Room{}).Error
}
