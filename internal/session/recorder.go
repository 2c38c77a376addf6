package session

import (
	"time"

	"github.com/run-bigpig/consilium/internal/models"
)

// Recorder returns a LogFunc that stamps events with wall-clock time and
// appends them to the session's log.
func Recorder(s *Session) models.LogFunc {
	return func(event models.LogEvent) {
		if event.Timestamp == "" {
			event.Timestamp = time.Now().Format("15:04:05")
		}
		s.AppendLog(event)
	}
}
