package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/m3rciful/onboardbot/core/logger"
)

func encode(s Session) ([]byte, error) {
	return json.Marshal(s)
}

// decode parses a stored record. A record with an unknown state cannot be
// resumed safely and is replaced by the default session.
func decode(ctx context.Context, backend string, raw []byte) (Session, error) {
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("decode %s session: %w", backend, err)
	}
	if !s.State.Valid() {
		logger.LogEvent(ctx, logger.Session, slog.LevelWarn, "session.decode",
			slog.String("status", "skip"),
			slog.String("store", backend),
			slog.String("state", string(s.State)),
			slog.String("cause", "unknown_state"),
		)
		return Default(), nil
	}
	return s, nil
}
