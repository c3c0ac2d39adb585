package repository

import (
	"context"

	"github.com/golfcast/golfcast/internal/models"
)

// SessionRepository persists GolfSession records — the §6 "session"
// relational-store entity the core consumes through an interface.
type SessionRepository interface {
	Create(ctx context.Context, session *models.GolfSession) error
	GetByID(ctx context.Context, id models.ULID) (*models.GolfSession, error)
	GetActive(ctx context.Context) (*models.GolfSession, error)
	Update(ctx context.Context, session *models.GolfSession) error
	Close(ctx context.Context, id models.ULID, endUTC models.Time) error
}

// SequenceRepository persists SwingSequence records and answers §6's
// `get_sequences_for_session(session_id)` query.
type SequenceRepository interface {
	Create(ctx context.Context, seq *models.SwingSequence) error
	GetByID(ctx context.Context, id models.ULID) (*models.SwingSequence, error)
	GetSequencesForSession(ctx context.Context, sessionID models.ULID) ([]*models.SwingSequence, error)
	Update(ctx context.Context, seq *models.SwingSequence) error
	UpdateExportStatus(ctx context.Context, id models.ULID, status models.ExportStatus, clipPath, exportErr string) error
}

// OverlayConfigRepository persists OverlaySettings records and answers
// §6's `get_default(type)` query for the overlay config type.
type OverlayConfigRepository interface {
	Create(ctx context.Context, cfg *models.OverlaySettings) error
	GetByID(ctx context.Context, id models.ULID) (*models.OverlaySettings, error)
	GetDefault(ctx context.Context) (*models.OverlaySettings, error)
	Update(ctx context.Context, cfg *models.OverlaySettings) error
}

// ClipRepository persists completed Clip export records.
type ClipRepository interface {
	Create(ctx context.Context, clip *models.Clip) error
	GetBySwingSequenceID(ctx context.Context, swingSequenceID models.ULID) (*models.Clip, error)
	GetAll(ctx context.Context) ([]*models.Clip, error)
}

// RecordingSessionRepository persists RecordingSession and its
// per-input InputRecordingSession rows (§3).
type RecordingSessionRepository interface {
	Create(ctx context.Context, session *models.RecordingSession) error
	GetByID(ctx context.Context, id models.ULID) (*models.RecordingSession, error)
	GetAll(ctx context.Context) ([]*models.RecordingSession, error)
	Finish(ctx context.Context, id models.ULID, endUTC models.Time, fileSizeBytes int64) error
}
