package pgs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/types"
)

// SessionStore persists PGS sessions under pgs-sessions/<sessionId>.json
// (spec.md §3 "PGS Session").
type SessionStore struct {
	cfg *config.PGSConfig
	log *logger.Logger
}

// NewSessionStore creates a PGS session store.
func NewSessionStore(cfg *config.PGSConfig, log *logger.Logger) *SessionStore {
	return &SessionStore{cfg: cfg, log: log.WithComponent("pgs.session")}
}

func (s *SessionStore) path(brainRoot, sessionID string) string {
	return filepath.Join(brainRoot, s.cfg.SessionsDir, sessionID+".json")
}

// Load returns the session, or nil if it doesn't exist or is corrupt —
// a corrupt session is treated as absent so a fresh one starts cleanly.
func (s *SessionStore) Load(brainRoot, sessionID string) *types.PGSSession {
	data, err := os.ReadFile(s.path(brainRoot, sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		s.log.Warn("failed to read pgs session", "sessionId", sessionID, "error", err)
		return nil
	}

	var session types.PGSSession
	if err := json.Unmarshal(data, &session); err != nil {
		s.log.Warn("pgs session unreadable, discarding", "sessionId", sessionID, "error", err)
		return nil
	}
	return &session
}

// Save persists session, creating the sessions directory if needed.
func (s *SessionStore) Save(brainRoot string, session *types.PGSSession) error {
	dir := filepath.Join(brainRoot, s.cfg.SessionsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create sessions dir: %w", err)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal pgs session: %w", err)
	}

	path := s.path(brainRoot, session.SessionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pgs session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize pgs session: %w", err)
	}

	return nil
}
