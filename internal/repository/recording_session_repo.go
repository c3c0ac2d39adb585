package repository

import (
	"context"
	"fmt"

	"github.com/golfcast/golfcast/internal/models"
	"gorm.io/gorm"
)

// recordingSessionRepo implements RecordingSessionRepository using GORM.
type recordingSessionRepo struct {
	db *gorm.DB
}

// NewRecordingSessionRepository creates a new RecordingSessionRepository.
func NewRecordingSessionRepository(db *gorm.DB) *recordingSessionRepo {
	return &recordingSessionRepo{db: db}
}

func (r *recordingSessionRepo) Create(ctx context.Context, session *models.RecordingSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("creating recording session: %w", err)
	}
	return nil
}

func (r *recordingSessionRepo) GetByID(ctx context.Context, id models.ULID) (*models.RecordingSession, error) {
	var session models.RecordingSession
	if err := r.db.WithContext(ctx).Preload("Inputs").Where("id = ?", id).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting recording session by ID: %w", err)
	}
	return &session, nil
}

func (r *recordingSessionRepo) GetAll(ctx context.Context) ([]*models.RecordingSession, error) {
	var sessions []*models.RecordingSession
	if err := r.db.WithContext(ctx).Order("start_time_utc DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("getting all recording sessions: %w", err)
	}
	return sessions, nil
}

func (r *recordingSessionRepo) Finish(ctx context.Context, id models.ULID, endUTC models.Time, fileSizeBytes int64) error {
	updates := map[string]any{
		"end_time_utc":    endUTC,
		"file_size_bytes": fileSizeBytes,
	}
	if err := r.db.WithContext(ctx).Model(&models.RecordingSession{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("finishing recording session: %w", err)
	}
	return nil
}
