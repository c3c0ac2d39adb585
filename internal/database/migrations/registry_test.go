package migrations

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golfcast/golfcast/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db
}

func TestAllMigrations_ReturnsExpectedCount(t *testing.T) {
	migrations := AllMigrations()
	assert.Len(t, migrations, 2)
}

func TestAllMigrations_VersionsAreUnique(t *testing.T) {
	migrations := AllMigrations()
	versions := make(map[string]bool)

	for _, m := range migrations {
		assert.False(t, versions[m.Version], "duplicate version: %s", m.Version)
		versions[m.Version] = true
	}
}

func TestAllMigrations_VersionsAreOrdered(t *testing.T) {
	migrations := AllMigrations()

	for i := 1; i < len(migrations); i++ {
		assert.Less(t, migrations[i-1].Version, migrations[i].Version,
			"migrations should be in ascending version order")
	}
}

func TestMigrator_Up_AllMigrations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	migrator := NewMigrator(db, nil)
	migrator.RegisterAll(AllMigrations())

	err := migrator.Up(ctx)
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable("golf_sessions"))
	assert.True(t, db.Migrator().HasTable("recording_sessions"))
	assert.True(t, db.Migrator().HasTable("input_recording_sessions"))
	assert.True(t, db.Migrator().HasTable("swing_sequences"))
	assert.True(t, db.Migrator().HasTable("clips"))
	assert.True(t, db.Migrator().HasTable("overlay_settings"))
}

func TestMigrator_Up_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	migrator := NewMigrator(db, nil)
	migrator.RegisterAll(AllMigrations())

	err := migrator.Up(ctx)
	require.NoError(t, err)

	err = migrator.Up(ctx)
	require.NoError(t, err)
}

func TestMigrator_Status(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	migrator := NewMigrator(db, nil)
	migrator.RegisterAll(AllMigrations())

	statuses, err := migrator.Status(ctx)
	require.NoError(t, err)
	assert.Len(t, statuses, 2)

	for _, s := range statuses {
		assert.False(t, s.Applied)
		assert.Nil(t, s.AppliedAt)
	}

	err = migrator.Up(ctx)
	require.NoError(t, err)

	statuses, err = migrator.Status(ctx)
	require.NoError(t, err)

	for _, s := range statuses {
		assert.True(t, s.Applied)
		assert.NotNil(t, s.AppliedAt)
	}
}

func TestMigrator_Down_RollsBackLastMigration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	migrator := NewMigrator(db, nil)
	migrator.RegisterAll(AllMigrations())

	err := migrator.Up(ctx)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.OverlaySettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Roll back migration 002 (default overlay seed)
	err = migrator.Down(ctx)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.OverlaySettings{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	assert.True(t, db.Migrator().HasTable("overlay_settings"))

	// Roll back migration 001 (schema)
	err = migrator.Down(ctx)
	require.NoError(t, err)

	assert.False(t, db.Migrator().HasTable("golf_sessions"))
	assert.False(t, db.Migrator().HasTable("swing_sequences"))
}

func TestMigrator_Pending(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	migrator := NewMigrator(db, nil)
	migrator.RegisterAll(AllMigrations())

	pending, err := migrator.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	err = migrator.Up(ctx)
	require.NoError(t, err)

	pending, err = migrator.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 0)
}

func TestMigrations_CanInsertData(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	migrator := NewMigrator(db, nil)
	migrator.RegisterAll(AllMigrations())

	err := migrator.Up(ctx)
	require.NoError(t, err)

	session := &models.GolfSession{
		GolferName: "Test Golfer",
		StartUTC:   time.Now().UTC(),
	}
	require.NoError(t, db.Create(session).Error)
	assert.False(t, session.ID.IsZero())

	seq := &models.SwingSequence{
		SessionID:      session.ID,
		SequenceNumber: 1,
		InPointTicks:   1000,
		ExportStatus:   models.ExportStatusPending,
	}
	require.NoError(t, db.Create(seq).Error)
	assert.False(t, seq.ID.IsZero())
}

func TestMigrations_RecordingSessionRelationships(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	migrator := NewMigrator(db, nil)
	migrator.RegisterAll(AllMigrations())

	err := migrator.Up(ctx)
	require.NoError(t, err)

	rs := &models.RecordingSession{
		FilePath:     "/data/recordings",
		StartTimeUTC: time.Now().UTC(),
		Inputs: []models.InputRecordingSession{
			{InputIndex: 0, DeviceID: "syn-golfer"},
			{InputIndex: 1, DeviceID: "syn-simulator"},
		},
	}
	require.NoError(t, db.Create(rs).Error)

	var loaded models.RecordingSession
	err = db.Preload("Inputs").First(&loaded, "id = ?", rs.ID).Error
	require.NoError(t, err)
	assert.Len(t, loaded.Inputs, 2)
}
