package models

// GolfSession is the persisted "active golf session" referenced by the
// clip export pipeline (§4.8): the simulator recording path and session
// start time that swing-sequence in/out offsets are computed against.
type GolfSession struct {
	BaseModel

	GolferName string `gorm:"size:128" json:"golfer_name"`

	// Source2RecordingPath is the on-disk path of the simulator
	// (source index 1) recording for this session — the file the clip
	// exporter extracts swing ranges from.
	Source2RecordingPath string `gorm:"size:1024" json:"source2_recording_path"`

	StartUTC Time  `json:"start_utc"`
	EndUTC   *Time `json:"end_utc,omitempty"`

	Preset string `gorm:"size:64" json:"preset"`

	Sequences []SwingSequence `gorm:"foreignKey:SessionID" json:"sequences,omitempty"`
}

// TableName overrides GORM's pluralization.
func (GolfSession) TableName() string { return "golf_sessions" }

// RecordingSession is the persisted form of §3's RecordingSession: one
// completed or in-progress multi-input recording attempt.
type RecordingSession struct {
	BaseModel

	FilePath      string `gorm:"size:1024" json:"file_path"`
	StartTimeUTC  Time   `json:"start_time_utc"`
	EndTimeUTC    *Time  `json:"end_time_utc,omitempty"`
	StartTimecode string `gorm:"size:32" json:"start_timecode"`
	Preset        string `gorm:"size:64" json:"preset"`
	FileSizeBytes int64  `json:"file_size_bytes"`

	Inputs []InputRecordingSession `gorm:"foreignKey:RecordingSessionID" json:"inputs,omitempty"`
}

func (RecordingSession) TableName() string { return "recording_sessions" }

// InputRecordingSession is one device's per-input record within a
// RecordingSession (§3 InputRecordingSession).
type InputRecordingSession struct {
	BaseModel

	RecordingSessionID ULID   `gorm:"index;type:varchar(26)" json:"recording_session_id"`
	InputIndex          int    `json:"input_index"`
	DeviceID            string `gorm:"size:256" json:"device_id"`
	FilePath            string `gorm:"size:1024" json:"file_path"`
	FramesRecorded      uint64 `json:"frames_recorded"`
	DroppedFrames       uint64 `json:"dropped_frames"`
	FileSizeBytes       int64  `json:"file_size_bytes"`
}

func (InputRecordingSession) TableName() string { return "input_recording_sessions" }
