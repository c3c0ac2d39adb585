// Package migrations provides database migration management for golfcast.
package migrations

import (
	"github.com/golfcast/golfcast/internal/models"
	"gorm.io/gorm"
)

// AllMigrations returns all registered migrations in order.
func AllMigrations() []Migration {
	return []Migration{
		migration001Schema(),
		migration002DefaultOverlay(),
	}
}

// migration001Schema creates all database tables using GORM AutoMigrate.
func migration001Schema() Migration {
	return Migration{
		Version:     "001",
		Description: "Create all database tables",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				// Session and recording tables
				&models.GolfSession{},
				&models.RecordingSession{},
				&models.InputRecordingSession{},

				// Swing detection and clip export
				&models.SwingSequence{},
				&models.Clip{},

				// Overlay compositor configuration
				&models.OverlaySettings{},
			)
		},
		Down: func(tx *gorm.DB) error {
			tables := []string{
				"clips",
				"swing_sequences",
				"overlay_settings",
				"input_recording_sessions",
				"recording_sessions",
				"golf_sessions",
			}
			for _, table := range tables {
				if tx.Migrator().HasTable(table) {
					if err := tx.Migrator().DropTable(table); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

// migration002DefaultOverlay seeds the single default overlay configuration
// row that the clip export pipeline falls back to when a session has not
// selected one (§4.9's logo bug / lower third defaults).
func migration002DefaultOverlay() Migration {
	return Migration{
		Version:     "002",
		Description: "Insert default overlay configuration",
		Up: func(tx *gorm.DB) error {
			defaults := models.OverlaySettings{
				IsDefault:           true,
				LogoBugXPct:         0.88,
				LogoBugYPct:         0.05,
				LogoBugScalePct:     0.08,
				LogoBugOpacity:      1.0,
				LowerThirdEnabled:   true,
				LowerThirdFont:      "Inter",
				LowerThirdSize:      36,
				LowerThirdFGColor:   "#FFFFFF",
				LowerThirdBGColor:   "#000000",
				LowerThirdBGOpacity: 0.6,
				LowerThirdPosition:  "bottom-left",
			}
			return tx.Create(&defaults).Error
		},
		Down: func(tx *gorm.DB) error {
			return tx.Where("is_default = ?", true).Delete(&models.OverlaySettings{}).Error
		},
	}
}
