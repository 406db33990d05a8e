package lock

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/amiecorso/top4/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	backoffInitial = 25 * time.Millisecond
	backoffMax     = 200 * time.Millisecond
)

// PostgresLocker acquires a TTL-bounded lease row per room. Acquisition
// is a conditional insert; a stale row past its expiry is deleted and the
// insert retried with jittered backoff up to the wait bound. Release
// deletes the row only while it still carries the caller's token, so a
// holder that outlived its TTL cannot release a successor's lease.
type PostgresLocker struct {
	conn    *gorm.DB
	ttl     time.Duration
	maxWait time.Duration
}

func NewPostgresLocker(conn *gorm.DB, ttl, maxWait time.Duration) *PostgresLocker {
	return &PostgresLocker{conn: conn, ttl: ttl, maxWait: maxWait}
}

func (l *PostgresLocker) WithLock(ctx context.Context, roomID string, fn func() error) error {
	key := "lock:room:" + roomID
	token := uuid.NewString()
	deadline := time.Now().Add(l.maxWait)
	backoff := backoffInitial

	for {
		acquired, err := l.tryAcquire(ctx, key, token)
		if err != nil {
			return err
		}
		if acquired {
			break
		}
		if time.Now().After(deadline) {
			log.Printf("lock acquisition timed out room_id=%s wait=%s", roomID, l.maxWait)
			return ErrLockTimeout
		}
		select {
		case <-time.After(backoff + time.Duration(rand.Int63n(int64(backoff)))):
		case <-ctx.Done():
			return ErrLockTimeout
		}
		if backoff *= 2; backoff > backoffMax {
			backoff = backoffMax
		}
	}
	defer l.release(key, token)
	return fn()
}

func (l *PostgresLocker) tryAcquire(ctx context.Context, key, token string) (bool, error) {
	now := time.Now().UTC()
	record := db.RoomLock{
		Key:       key,
		Token:     token,
		ExpiresAt: now.Add(l.ttl),
	}
	result := l.conn.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		return true, nil
	}
	// Lease held by someone else; clear it if the TTL has lapsed.
	l.conn.WithContext(ctx).
		Where("key = ? AND expires_at < ?", key, now).
		Delete(&db.RoomLock{})
	return false, nil
}

func (l *PostgresLocker) release(key, token string) {
	result := l.conn.Where("key = ? AND token = ?", key, token).Delete(&db.RoomLock{})
	if result.Error != nil {
		log.Printf("lock release failed key=%s error=%v", key, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		// TTL expired and another holder took over; releasing would have
		// broken their lease, so the token check let it stand.
		log.Printf("lock lease expired before release key=%s", key)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
