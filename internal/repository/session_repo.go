package repository

import (
	"context"
	"fmt"

	"github.com/golfcast/golfcast/internal/models"
	"gorm.io/gorm"
)

// sessionRepo implements SessionRepository using GORM.
type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *gorm.DB) *sessionRepo {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, session *models.GolfSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("creating golf session: %w", err)
	}
	return nil
}

func (r *sessionRepo) GetByID(ctx context.Context, id models.ULID) (*models.GolfSession, error) {
	var session models.GolfSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting golf session by ID: %w", err)
	}
	return &session, nil
}

// GetActive returns the most recent session with no EndUTC set, i.e.
// the one currently referenced by the clip export pipeline (§4.8).
func (r *sessionRepo) GetActive(ctx context.Context) (*models.GolfSession, error) {
	var session models.GolfSession
	err := r.db.WithContext(ctx).
		Where("end_utc IS NULL").
		Order("start_utc DESC").
		First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting active golf session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepo) Update(ctx context.Context, session *models.GolfSession) error {
	if err := r.db.WithContext(ctx).Save(session).Error; err != nil {
		return fmt.Errorf("updating golf session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Close(ctx context.Context, id models.ULID, endUTC models.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.GolfSession{}).
		Where("id = ?", id).
		Update("end_utc", endUTC).Error; err != nil {
		return fmt.Errorf("closing golf session: %w", err)
	}
	return nil
}
