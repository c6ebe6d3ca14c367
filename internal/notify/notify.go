package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Alerter shows a message to the user.
type Alerter interface {
	Alert(msg string)
}

type Alert struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Log records alerts through zerolog and keeps the most recent ones so the
// view can render them.
type Log struct {
	mu     sync.Mutex
	logger zerolog.Logger
	keep   int
	alerts []Alert
}

func NewLog(logger zerolog.Logger, keep int) *Log {
	if keep <= 0 {
		keep = 20
	}
	return &Log{logger: logger, keep: keep}
}

func (l *Log) Alert(msg string) {
	l.logger.Warn().Str("alert", msg).Msg("User alert")

	l.mu.Lock()
	defer l.mu.Unlock()
	l.alerts = append(l.alerts, Alert{Message: msg, At: time.Now()})
	if len(l.alerts) > l.keep {
		l.alerts = l.alerts[len(l.alerts)-l.keep:]
	}
}

// Recent returns alerts oldest first.
func (l *Log) Recent() []Alert {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Alert, len(l.alerts))
	copy(out, l.alerts)
	return out
}
