package models

// ExportStatus is the lifecycle of a SwingSequence's clip export (§3).
type ExportStatus string

const (
	ExportStatusPending          ExportStatus = "pending"
	ExportStatusExtracting       ExportStatus = "extracting"
	ExportStatusOverlayRendering ExportStatus = "overlay_rendering"
	ExportStatusCompleted        ExportStatus = "completed"
	ExportStatusFailed           ExportStatus = "failed"
)

// IsValid reports whether s is a recognized ExportStatus.
func (s ExportStatus) IsValid() bool {
	switch s {
	case ExportStatusPending, ExportStatusExtracting, ExportStatusOverlayRendering,
		ExportStatusCompleted, ExportStatusFailed:
		return true
	default:
		return false
	}
}

// SwingSequence is one golfer swing, pegged to wall-clock ticks of its
// session, synthesized by the sequence recorder from program-source
// changes (§3, §4.7) and consumed by the clip export pipeline (§4.8).
type SwingSequence struct {
	BaseModel

	SessionID      ULID `gorm:"index;type:varchar(26)" json:"session_id"`
	SequenceNumber int  `json:"sequence_number"`

	InPointTicks  int64  `json:"in_point_ticks"`
	OutPointTicks *int64 `json:"out_point_ticks,omitempty"`

	DetectionMethod string       `gorm:"size:32" json:"detection_method"`
	ExportStatus    ExportStatus `gorm:"size:32;default:pending" json:"export_status"`
	ExportError     string       `gorm:"size:1024" json:"export_error,omitempty"`

	ExportedClipPath string `gorm:"size:1024" json:"exported_clip_path,omitempty"`
}

func (SwingSequence) TableName() string { return "swing_sequences" }

// Clip is a persisted final export: the extracted (and optionally
// overlay-composited) swing clip, one-to-one with a completed
// SwingSequence.
type Clip struct {
	BaseModel

	SwingSequenceID ULID   `gorm:"uniqueIndex;type:varchar(26)" json:"swing_sequence_id"`
	Name            string `gorm:"size:256" json:"name"`
	OutputPath      string `gorm:"size:1024" json:"output_path"`
	DurationMS      int64  `json:"duration_ms"`
	FileSizeBytes   int64  `json:"file_size_bytes"`
}

func (Clip) TableName() string { return "clips" }

// OverlaySettings is the persisted form of §3's OverlayConfig: the
// logo-bug / lower-third configuration applied to exported clips.
type OverlaySettings struct {
	BaseModel

	IsDefault bool `gorm:"index" json:"is_default"`

	LogoBugPath     string  `gorm:"size:1024" json:"logo_bug_path,omitempty"`
	LogoBugXPct     float64 `json:"logo_bug_x_pct"`
	LogoBugYPct     float64 `json:"logo_bug_y_pct"`
	LogoBugScalePct float64 `json:"logo_bug_scale_pct"`
	LogoBugOpacity  float64 `json:"logo_bug_opacity"`

	LowerThirdEnabled   bool    `json:"lower_third_enabled"`
	LowerThirdText      string  `gorm:"size:256" json:"lower_third_text,omitempty"`
	LowerThirdFont      string  `gorm:"size:128" json:"lower_third_font,omitempty"`
	LowerThirdSize      int     `json:"lower_third_size"`
	LowerThirdFGColor   string  `gorm:"size:32" json:"lower_third_fg_color,omitempty"`
	LowerThirdBGColor   string  `gorm:"size:32" json:"lower_third_bg_color,omitempty"`
	LowerThirdBGOpacity float64 `json:"lower_third_bg_opacity"`
	LowerThirdPosition  string  `gorm:"size:32" json:"lower_third_position,omitempty"`
}

func (OverlaySettings) TableName() string { return "overlay_settings" }
