package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hongminglow/casetrack-be/internal/models"
)

// ErrNoSession is returned by a SessionStore holding nothing usable.
var ErrNoSession = errors.New("no stored session")

// sessionVersion tags the persisted layout; snapshots with another version
// are discarded.
const sessionVersion = 1

// Session is the signed-in state the client carries between invocations.
type Session struct {
	User             models.User              `json:"user"`
	Token            string                   `json:"token"`
	Dashboards       []models.DashboardAccess `json:"dashboards"`
	CurrentDashboard string                   `json:"currentDashboard,omitempty"`
	CurrentModule    string                   `json:"currentModule,omitempty"`
}

// Active reports whether the session holds a token.
func (s Session) Active() bool {
	return s.Token != ""
}

// SessionStore persists a session snapshot.
type SessionStore interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

type snapshot struct {
	Version int     `json:"version"`
	Session Session `json:"session"`
}

// FileStore keeps the session as JSON in a single file readable only by its
// owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultSessionPath is ~/.config/casetrack/session.json or the OS
// equivalent.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "casetrack", "session.json"), nil
}

func (f *FileStore) Load(_ context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil || snap.Version != sessionVersion || !snap.Session.Active() {
		return Session{}, ErrNoSession
	}
	return snap.Session, nil
}

func (f *FileStore) Save(_ context.Context, s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.MarshalIndent(snapshot{Version: sessionVersion, Session: s}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
