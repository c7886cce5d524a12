// Package sessions persists per-user key/value state between webhook calls.
// Sessions are keyed by the Slack user id and stored as a JSON document, one
// row per user.
package sessions

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// Record is the stored shape of one user session.
type Record struct {
	UserID string `gorm:"primaryKey"`
	Data   []byte
}

// TableName keeps the table name stable across dialects.
func (Record) TableName() string { return "slackapp_sessions" }

// Store reads and writes sessions. Concurrent requests for the same user id
// are serialized per user, so a read-modify-write in Update never races a
// concurrent one for the same session.
type Store struct {
	db *gorm.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open connects the store and migrates its schema.
func Open(dialector gorm.Dialector, opts ...gorm.Option) (*Store, error) {
	db, err := gorm.Open(dialector, opts...)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrating session schema: %w", err)
	}
	return &Store{
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// Session is one user's decoded session state.
type Session struct {
	UserID string
	values map[string]json.RawMessage
}

// Get decodes the value stored under key into out. It reports whether the
// key was present.
func (s *Session) Get(key string, out any) (bool, error) {
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("decoding session key %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key.
func (s *Session) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding session key %q: %w", key, err)
	}
	s.values[key] = raw
	return nil
}

// Delete removes key from the session.
func (s *Session) Delete(key string) {
	delete(s.values, key)
}

func (s *Store) load(userID string) (*Session, error) {
	sess := &Session{
		UserID: userID,
		values: make(map[string]json.RawMessage),
	}

	var rec Record
	err := s.db.First(&rec, "user_id = ?", userID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return sess, nil
	case err != nil:
		return nil, fmt.Errorf("loading session %s: %w", userID, err)
	}

	if len(rec.Data) > 0 {
		if err := json.Unmarshal(rec.Data, &sess.values); err != nil {
			return nil, fmt.Errorf("decoding session %s: %w", userID, err)
		}
	}
	return sess, nil
}

func (s *Store) save(sess *Session) error {
	data, err := json.Marshal(sess.values)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sess.UserID, err)
	}

	rec := Record{UserID: sess.UserID, Data: data}
	if err := s.db.Save(&rec).Error; err != nil {
		return fmt.Errorf("saving session %s: %w", sess.UserID, err)
	}
	return nil
}

// Update runs fn against the user's session under the per-user lock and
// persists any changes fn made.
func (s *Store) Update(userID string, fn func(*Session) error) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.load(userID)
	if err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		return err
	}
	return s.save(sess)
}

// View runs fn against a read-only copy of the user's session.
func (s *Store) View(userID string, fn func(*Session) error) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.load(userID)
	if err != nil {
		return err
	}
	return fn(sess)
}

// Reset discards the user's session.
func (s *Store) Reset(userID string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	err := s.db.Delete(&Record{}, "user_id = ?", userID).Error
	if err != nil {
		return fmt.Errorf("resetting session %s: %w", userID, err)
	}
	return nil
}
