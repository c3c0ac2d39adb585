package repository

import (
	"context"
	"fmt"

	"github.com/golfcast/golfcast/internal/models"
	"gorm.io/gorm"
)

// sequenceRepo implements SequenceRepository using GORM.
type sequenceRepo struct {
	db *gorm.DB
}

// NewSequenceRepository creates a new SequenceRepository.
func NewSequenceRepository(db *gorm.DB) *sequenceRepo {
	return &sequenceRepo{db: db}
}

func (r *sequenceRepo) Create(ctx context.Context, seq *models.SwingSequence) error {
	if err := r.db.WithContext(ctx).Create(seq).Error; err != nil {
		return fmt.Errorf("creating swing sequence: %w", err)
	}
	return nil
}

func (r *sequenceRepo) GetByID(ctx context.Context, id models.ULID) (*models.SwingSequence, error) {
	var seq models.SwingSequence
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&seq).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting swing sequence by ID: %w", err)
	}
	return &seq, nil
}

// GetSequencesForSession implements the §6 `get_sequences_for_session`
// query, ordered by sequence number.
func (r *sequenceRepo) GetSequencesForSession(ctx context.Context, sessionID models.ULID) ([]*models.SwingSequence, error) {
	var seqs []*models.SwingSequence
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("sequence_number ASC").
		Find(&seqs).Error; err != nil {
		return nil, fmt.Errorf("getting sequences for session: %w", err)
	}
	return seqs, nil
}

func (r *sequenceRepo) Update(ctx context.Context, seq *models.SwingSequence) error {
	if err := r.db.WithContext(ctx).Save(seq).Error; err != nil {
		return fmt.Errorf("updating swing sequence: %w", err)
	}
	return nil
}

// UpdateExportStatus is the narrow write the clip export pipeline makes
// at each stage transition (§4.8: "status publication").
func (r *sequenceRepo) UpdateExportStatus(ctx context.Context, id models.ULID, status models.ExportStatus, clipPath, exportErr string) error {
	updates := map[string]any{
		"export_status":      status,
		"exported_clip_path": clipPath,
		"export_error":       exportErr,
	}
	if err := r.db.WithContext(ctx).Model(&models.SwingSequence{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("updating export status: %w", err)
	}
	return nil
}
