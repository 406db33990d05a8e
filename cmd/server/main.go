package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/amiecorso/top4/internal/config"
	"github.com/amiecorso/top4/internal/db"
	"github.com/amiecorso/top4/internal/lock"
	"github.com/amiecorso/top4/internal/server"
	"github.com/amiecorso/top4/internal/session"
	"github.com/amiecorso/top4/internal/store"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()
	if env := os.Getenv("PORT"); env != "" {
		cfg.Addr = ":" + env
	}

	var (
		roomStore store.RoomStore
		locker    lock.RoomLocker
	)
	switch cfg.StoreBackend {
	case "postgres":
		conn, err := db.Open()
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		if err := db.Migrate(conn); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
		roomStore = store.NewPostgresStore(conn)
		locker = lock.NewPostgresLocker(conn,
			time.Duration(cfg.LockTTLSeconds)*time.Second,
			time.Duration(cfg.LockWaitSeconds)*time.Second)
	case "file":
		roomStore = store.NewFileStore(cfg.StorePath)
		locker = lock.NewKeyedMutex()
	default:
		log.Fatalf("unknown store backend %q", cfg.StoreBackend)
	}

	manager := session.NewManager(roomStore, locker)
	srv := server.New(manager, cfg)
	log.Printf("top4 server listening on %s backend=%s", cfg.Addr, cfg.StoreBackend)
	if err := http.ListenAndServe(cfg.Addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
