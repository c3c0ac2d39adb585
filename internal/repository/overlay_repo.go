package repository

import (
	"context"
	"fmt"

	"github.com/golfcast/golfcast/internal/models"
	"gorm.io/gorm"
)

// overlayConfigRepo implements OverlayConfigRepository using GORM.
type overlayConfigRepo struct {
	db *gorm.DB
}

// NewOverlayConfigRepository creates a new OverlayConfigRepository.
func NewOverlayConfigRepository(db *gorm.DB) *overlayConfigRepo {
	return &overlayConfigRepo{db: db}
}

func (r *overlayConfigRepo) Create(ctx context.Context, cfg *models.OverlaySettings) error {
	if err := r.db.WithContext(ctx).Create(cfg).Error; err != nil {
		return fmt.Errorf("creating overlay config: %w", err)
	}
	return nil
}

func (r *overlayConfigRepo) GetByID(ctx context.Context, id models.ULID) (*models.OverlaySettings, error) {
	var cfg models.OverlaySettings
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cfg).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting overlay config by ID: %w", err)
	}
	return &cfg, nil
}

// GetDefault implements §6's `get_default(type)` query for the one
// overlay config type this core manages.
func (r *overlayConfigRepo) GetDefault(ctx context.Context) (*models.OverlaySettings, error) {
	var cfg models.OverlaySettings
	if err := r.db.WithContext(ctx).Where("is_default = ?", true).First(&cfg).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting default overlay config: %w", err)
	}
	return &cfg, nil
}

func (r *overlayConfigRepo) Update(ctx context.Context, cfg *models.OverlaySettings) error {
	if err := r.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return fmt.Errorf("updating overlay config: %w", err)
	}
	return nil
}

// clipRepo implements ClipRepository using GORM.
type clipRepo struct {
	db *gorm.DB
}

// NewClipRepository creates a new ClipRepository.
func NewClipRepository(db *gorm.DB) *clipRepo {
	return &clipRepo{db: db}
}

func (r *clipRepo) Create(ctx context.Context, clip *models.Clip) error {
	if err := r.db.WithContext(ctx).Create(clip).Error; err != nil {
		return fmt.Errorf("creating clip: %w", err)
	}
	return nil
}

func (r *clipRepo) GetBySwingSequenceID(ctx context.Context, swingSequenceID models.ULID) (*models.Clip, error) {
	var clip models.Clip
	if err := r.db.WithContext(ctx).Where("swing_sequence_id = ?", swingSequenceID).First(&clip).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting clip by swing sequence ID: %w", err)
	}
	return &clip, nil
}

func (r *clipRepo) GetAll(ctx context.Context) ([]*models.Clip, error) {
	var clips []*models.Clip
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&clips).Error; err != nil {
		return nil, fmt.Errorf("getting all clips: %w", err)
	}
	return clips, nil
}
