// Package scheduler provides a cron-driven trigger for starting
// recordings at configured times. The scheduling UI and any
// persistence of schedules are out of scope; this is the timer that
// calls the recorder, not a job queue.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/golfcast/golfcast/internal/recorder"
)

// NormalizeCronExpression normalizes a cron expression to 6-field
// format (seconds supported). It accepts both 6-field (passed through)
// and legacy 7-field (year stripped after validation) forms.
func NormalizeCronExpression(expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", fmt.Errorf("empty cron expression")
	}
	if strings.HasPrefix(expr, "@") {
		return expr, nil
	}

	fields := strings.Fields(expr)
	switch len(fields) {
	case 6:
		return expr, nil
	case 7:
		yearField := fields[6]
		if !isValidYearField(yearField) {
			return "", fmt.Errorf("invalid year field %q: must be * or a valid year/range", yearField)
		}
		return strings.Join(fields[:6], " "), nil
	default:
		return "", fmt.Errorf("invalid cron expression: expected 6 or 7 fields, got %d", len(fields))
	}
}

func isValidYearField(field string) bool {
	if field == "*" {
		return true
	}
	for _, r := range field {
		if !((r >= '0' && r <= '9') || r == ',' || r == '-' || r == '/' || r == '*') {
			return false
		}
	}
	return len(field) > 0
}

// Trigger is one scheduled recording: a cron expression and the
// options StartRecording is called with when it fires.
type Trigger struct {
	Name     string
	CronExpr string
	Options  recorder.StartOptions
}

// RecordingScheduler fires recorder.StartRecording on a cron schedule.
// It holds no persistence of its own — triggers are registered with
// AddTrigger and live only in memory.
type RecordingScheduler struct {
	mu sync.Mutex

	rec    *recorder.Recorder
	cron   *cron.Cron
	logger *slog.Logger

	entries map[string]cron.EntryID
}

// New creates a RecordingScheduler that starts recordings on rec.
func New(rec *recorder.Recorder, logger *slog.Logger) *RecordingScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithChain(
		cron.Recover(cron.DefaultLogger),
	))
	return &RecordingScheduler{
		rec:     rec,
		cron:    c,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}
}

// AddTrigger schedules t, replacing any previously registered trigger
// with the same name.
func (s *RecordingScheduler) AddTrigger(t Trigger) error {
	normalized, err := NormalizeCronExpression(t.CronExpr)
	if err != nil {
		return fmt.Errorf("scheduler: normalizing cron expression for %q: %w", t.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[t.Name]; ok {
		s.cron.Remove(id)
		delete(s.entries, t.Name)
	}

	opts := t.Options
	id, err := s.cron.AddFunc(normalized, func() {
		s.logger.Info("scheduled recording trigger firing", slog.String("trigger", t.Name))
		if _, err := s.rec.StartRecording(context.Background(), opts); err != nil {
			s.logger.Error("scheduled recording trigger failed",
				slog.String("trigger", t.Name), slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: adding trigger %q: %w", t.Name, err)
	}
	s.entries[t.Name] = id
	return nil
}

// RemoveTrigger unregisters a previously added trigger by name.
func (s *RecordingScheduler) RemoveTrigger(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}

// Start begins running scheduled triggers.
func (s *RecordingScheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler without waiting. The returned context is
// done once any in-flight trigger has finished its synchronous AddFunc
// callback body (not the recording itself, which runs asynchronously
// inside the recorder).
func (s *RecordingScheduler) Stop() context.Context {
	return s.cron.Stop()
}
