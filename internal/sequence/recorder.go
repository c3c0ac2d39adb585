// Package sequence translates switcher.ProgramSourceChanged events into
// SwingSequence records pegged to wall-clock ticks of the active golf
// session (§4.7).
package sequence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/golfcast/golfcast/internal/models"
	"github.com/golfcast/golfcast/internal/repository"
	"github.com/golfcast/golfcast/internal/switcher"
)

// CompletedHandler observes a sequence closing (cut back to the golfer
// camera with a matching open sequence).
type CompletedHandler func(seq *models.SwingSequence)

// Recorder subscribes to a switcher's program-source changes and
// maintains one open SwingSequence at a time.
type Recorder struct {
	sessions  repository.SessionRepository
	sequences repository.SequenceRepository
	logger    *slog.Logger
	now       func() time.Time

	mu             sync.Mutex
	lastCutReason  string
	openSequence   *models.SwingSequence
	sessionID      models.ULID
	nextSeqNumber  int
	completedHooks []CompletedHandler
}

// New creates a Recorder. Call Attach to wire it to a switcher.
func New(sessions repository.SessionRepository, sequences repository.SequenceRepository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		sessions:  sessions,
		sequences: sequences,
		logger:    logger,
		now:       time.Now,
	}
}

// Attach registers the recorder's handler on sw. Any cut that arrives
// must have its reason set via SetLastCutReason on the same goroutine,
// before the switcher invokes observers (the autocut controller is
// expected to call both from the same cut dispatch).
func (r *Recorder) Attach(sw *switcher.Switcher) {
	sw.OnProgramSourceChanged(r.onProgramSourceChanged)
}

// OnSequenceCompleted registers an observer invoked when a sequence
// closes (cut back to the golfer camera with a matching open sequence).
func (r *Recorder) OnSequenceCompleted(h CompletedHandler) {
	r.mu.Lock()
	r.completedHooks = append(r.completedHooks, h)
	r.mu.Unlock()
}

// SetLastCutReason records the reason for the cut about to be applied
// to the switcher. The autocut controller calls this immediately before
// calling switcher.SetProgramSourceIndex for the same cut, so that by
// the time this recorder's OnProgramSourceChanged callback fires
// (synchronously, on the same goroutine), the reason is already set.
func (r *Recorder) SetLastCutReason(reason string) {
	r.mu.Lock()
	r.lastCutReason = reason
	r.mu.Unlock()
}

func (r *Recorder) onProgramSourceChanged(old, new switcher.SourceIndex) {
	now := r.now()

	switch new {
	case switcher.SourceSimulator:
		r.openSequenceFor(now)
	case switcher.SourceGolfer:
		r.closeOpenSequence(now)
	}
}

func (r *Recorder) openSequenceFor(now time.Time) {
	ctx := context.Background()

	active, err := r.sessions.GetActive(ctx)
	if err != nil {
		r.logger.Error("sequence: failed to look up active session", slog.String("error", err.Error()))
		return
	}
	if active == nil {
		r.logger.Warn("sequence: cut to simulator with no active session, discarding")
		return
	}

	r.mu.Lock()
	if r.sessionID != active.ID {
		r.sessionID = active.ID
		r.nextSeqNumber = 1
	} else {
		r.nextSeqNumber++
	}
	seqNumber := r.nextSeqNumber
	r.mu.Unlock()

	seq := &models.SwingSequence{
		SessionID:       active.ID,
		SequenceNumber:  seqNumber,
		InPointTicks:    now.UnixNano(),
		DetectionMethod: "",
		ExportStatus:    models.ExportStatusPending,
	}
	if err := r.sequences.Create(ctx, seq); err != nil {
		r.logger.Error("sequence: failed to create sequence", slog.String("error", err.Error()))
		return
	}

	r.mu.Lock()
	r.openSequence = seq
	r.mu.Unlock()
}

func (r *Recorder) closeOpenSequence(now time.Time) {
	r.mu.Lock()
	seq := r.openSequence
	reason := r.lastCutReason
	r.openSequence = nil
	r.mu.Unlock()

	// A cut without a matching open sequence is discarded — the FSM
	// should not emit such pairs, but this guards against it anyway
	// (§4.7: "belt-and-braces").
	if seq == nil {
		return
	}

	outTicks := now.UnixNano()
	seq.OutPointTicks = &outTicks
	seq.DetectionMethod = reason

	ctx := context.Background()
	if err := r.sequences.Update(ctx, seq); err != nil {
		r.logger.Error("sequence: failed to close sequence", slog.String("error", err.Error()))
		return
	}

	r.mu.Lock()
	hooks := append([]CompletedHandler(nil), r.completedHooks...)
	r.mu.Unlock()
	for _, h := range hooks {
		h(seq)
	}
}
