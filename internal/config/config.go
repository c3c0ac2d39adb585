// Package config provides configuration management for golfcast using
// Viper. It supports configuration from files, environment variables,
// and defaults, and also serves as the §6 "settings provider" the core
// consumes (Provider, below) for golf-detection preset selection and
// the raw `srt.inputs` / `virtual.*` keys.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultServerPort      = 8080
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxIdleTime = 30 * time.Minute
)

// Config holds all configuration for the golfcastd service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Capture  CaptureConfig  `mapstructure:"capture"`
	Recording RecordingConfig `mapstructure:"recording"`
	AutoCut  AutoCutConfig  `mapstructure:"autocut"`
	Overlay  OverlayConfig  `mapstructure:"overlay"`
	FFmpeg   FFmpegConfig   `mapstructure:"ffmpeg"`
}

// ServerConfig holds HTTP status-surface server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database connection configuration for the
// session/clip/schedule/upload-queue relational store (§6).
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// StorageConfig holds the directories the recorder and clip exporter
// write into.
type StorageConfig struct {
	BaseDir   string `mapstructure:"base_dir"`
	ClipDir   string `mapstructure:"clip_dir"`
	OutputDir string `mapstructure:"output_dir"`
	TempDir   string `mapstructure:"temp_dir"`

	// MaxRetentionSize bounds the exported-clip directory; clipexport
	// logs a warning once cumulative clip size crosses it. Zero disables
	// the check.
	MaxRetentionSize ByteSize `mapstructure:"max_retention_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// CaptureConfig controls which device families the composite
// DeviceManager aggregates (§4.1) and their per-family settings.
type CaptureConfig struct {
	EnableSDI       bool        `mapstructure:"enable_sdi"`
	EnableNDI       bool        `mapstructure:"enable_ndi"`
	EnableSRT       bool        `mapstructure:"enable_srt"`
	EnableSynthetic bool        `mapstructure:"enable_synthetic"`
	SDICardIndex    int         `mapstructure:"sdi_card_index"`
	NDISourceNames  []string    `mapstructure:"ndi_source_names"`
	SRTInputs       []SRTInput  `mapstructure:"srt_inputs"`
	StillImages     []string    `mapstructure:"still_images"`
	Colors          []string    `mapstructure:"colors"`

	// GolferDeviceID and SimulatorDeviceID name the devices (by the ID
	// reported through device.Manager.AvailableDevices()) whose frames
	// and audio feed the autocut controller. Empty disables autocut's
	// live input loop; frames still reach the recorder either way.
	GolferDeviceID    string `mapstructure:"golfer_device_id"`
	SimulatorDeviceID string `mapstructure:"simulator_device_id"`
}

// SRTInput mirrors the §6 `srt.inputs` settings-provider JSON array
// entry: `{ name, port, latency_ms }`.
type SRTInput struct {
	Name      string `mapstructure:"name"`
	Port      int    `mapstructure:"port"`
	LatencyMS int    `mapstructure:"latency_ms"`
}

// RecordingConfig holds the recording orchestrator's default output
// location, filename template, and encoder preset (§4.4).
type RecordingConfig struct {
	OutputDirectory  string `mapstructure:"output_directory"`
	FilenameTemplate string `mapstructure:"filename_template"`
	Preset           string `mapstructure:"preset"`
	MuxerPath        string `mapstructure:"muxer_path"`
}

// AutoCutConfig holds the §4.6 auto-cut tunables plus the sensitivity
// preset selector. Zero values mean "use DefaultConfig()" — see
// internal/autocut.Config for the authoritative defaults this mirrors.
type AutoCutConfig struct {
	Sensitivity string `mapstructure:"sensitivity"` // high, default, low

	AnalysisWidth   int `mapstructure:"analysis_width"`
	AnalysisHeight  int `mapstructure:"analysis_height"`
	FrameSkip       int `mapstructure:"frame_skip"`
	FrameCompareGap int `mapstructure:"frame_compare_gap"`

	EMAAlpha              float64 `mapstructure:"ema_alpha"`
	SwingSpikeMultiplier  float64 `mapstructure:"swing_spike_multiplier"`
	MinimumSpikeThreshold float64 `mapstructure:"minimum_spike_threshold"`

	ROILeft   float64 `mapstructure:"roi_left"`
	ROITop    float64 `mapstructure:"roi_top"`
	ROIWidth  float64 `mapstructure:"roi_width"`
	ROIHeight float64 `mapstructure:"roi_height"`

	IdleSimilarityThreshold   float64 `mapstructure:"idle_similarity_threshold"`
	ConsecutiveIdleFrames     int     `mapstructure:"consecutive_idle_frames_required"`
	StaticSceneThreshold      float64 `mapstructure:"static_scene_threshold"`

	AudioEnabled            bool    `mapstructure:"audio_enabled"`
	AudioEMAAlpha           float64 `mapstructure:"audio_ema_alpha"`
	AudioSpikeMultiplier    float64 `mapstructure:"audio_spike_multiplier"`
	MinimumAudioThresholdDB float64 `mapstructure:"minimum_audio_threshold_db"`
	AudioOnlyMode           bool    `mapstructure:"audio_only_mode"`
	AudioVideoFusionWindow  Duration `mapstructure:"audio_video_fusion_window"`

	MaxSimulatorDuration  Duration `mapstructure:"max_simulator_duration"`
	PracticeSwingTimeout  Duration `mapstructure:"practice_swing_timeout"`
	PostLandingDelay      Duration `mapstructure:"post_landing_delay"`
	CooldownDuration      Duration `mapstructure:"cooldown_duration"`
}

// OverlayConfig holds the default logo-bug / lower-third overlay
// settings applied to exported clips (§3 OverlayConfig) when a session
// does not supply its own.
type OverlayConfig struct {
	LogoBugPath    string  `mapstructure:"logo_bug_path"`
	LogoBugXPct    float64 `mapstructure:"logo_bug_x_pct"`
	LogoBugYPct    float64 `mapstructure:"logo_bug_y_pct"`
	LogoBugScalePct float64 `mapstructure:"logo_bug_scale_pct"`
	LogoBugOpacity float64 `mapstructure:"logo_bug_opacity"`

	LowerThirdEnabled bool   `mapstructure:"lower_third_enabled"`
	LowerThirdFont    string `mapstructure:"lower_third_font"`
	LowerThirdSize    int    `mapstructure:"lower_third_size"`
	LowerThirdFGColor string `mapstructure:"lower_third_fg_color"`
	LowerThirdBGColor string `mapstructure:"lower_third_bg_color"`
	LowerThirdBGOpacity float64 `mapstructure:"lower_third_bg_opacity"`
	LowerThirdPosition  string `mapstructure:"lower_third_position"`
}

// FFmpegConfig holds FFmpeg binary configuration used by the muxer,
// frame-extract, and overlay-compositor subprocess boundaries.
type FFmpegConfig struct {
	BinaryPath      string   `mapstructure:"binary_path"`
	ProbePath       string   `mapstructure:"probe_path"`
	HWAccelPriority []string `mapstructure:"hwaccel_priority"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with GOLFCAST_ and use underscores
// for nesting. Example: GOLFCAST_SERVER_PORT=8080.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/golfcast")
		v.AddConfigPath("$HOME/.golfcast")
	}

	v.SetEnvPrefix("GOLFCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "golfcast.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("storage.base_dir", "./data")
	v.SetDefault("storage.clip_dir", "clips")
	v.SetDefault("storage.output_dir", "recordings")
	v.SetDefault("storage.temp_dir", "temp")
	v.SetDefault("storage.max_retention_size", "0B")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("capture.enable_sdi", true)
	v.SetDefault("capture.enable_ndi", true)
	v.SetDefault("capture.enable_srt", true)
	v.SetDefault("capture.enable_synthetic", true)
	v.SetDefault("capture.sdi_card_index", 0)
	v.SetDefault("capture.ndi_source_names", []string{})
	v.SetDefault("capture.golfer_device_id", "")
	v.SetDefault("capture.simulator_device_id", "")

	v.SetDefault("recording.output_directory", "./data/recordings")
	v.SetDefault("recording.filename_template", "{datetime}_{name}{suffix}")
	v.SetDefault("recording.preset", "default")
	v.SetDefault("recording.muxer_path", "ffmpeg")

	v.SetDefault("autocut.sensitivity", "default")
	v.SetDefault("autocut.analysis_width", 120)
	v.SetDefault("autocut.analysis_height", 68)
	v.SetDefault("autocut.frame_skip", 4)
	v.SetDefault("autocut.frame_compare_gap", 2)
	v.SetDefault("autocut.ema_alpha", 0.05)
	v.SetDefault("autocut.swing_spike_multiplier", 4.0)
	v.SetDefault("autocut.minimum_spike_threshold", 500.0)
	v.SetDefault("autocut.roi_left", 0.2)
	v.SetDefault("autocut.roi_top", 0.1)
	v.SetDefault("autocut.roi_width", 0.6)
	v.SetDefault("autocut.roi_height", 0.8)
	v.SetDefault("autocut.idle_similarity_threshold", 0.95)
	v.SetDefault("autocut.consecutive_idle_frames_required", 3)
	v.SetDefault("autocut.static_scene_threshold", 200.0)
	v.SetDefault("autocut.audio_enabled", true)
	v.SetDefault("autocut.audio_ema_alpha", 0.05)
	v.SetDefault("autocut.audio_spike_multiplier", 4.0)
	v.SetDefault("autocut.minimum_audio_threshold_db", -50.0)
	v.SetDefault("autocut.audio_only_mode", false)
	v.SetDefault("autocut.audio_video_fusion_window", "500ms")
	v.SetDefault("autocut.max_simulator_duration", "30s")
	v.SetDefault("autocut.practice_swing_timeout", "3s")
	v.SetDefault("autocut.post_landing_delay", "1.5s")
	v.SetDefault("autocut.cooldown_duration", "2s")

	v.SetDefault("overlay.logo_bug_x_pct", 0.88)
	v.SetDefault("overlay.logo_bug_y_pct", 0.05)
	v.SetDefault("overlay.logo_bug_scale_pct", 10.0)
	v.SetDefault("overlay.logo_bug_opacity", 1.0)
	v.SetDefault("overlay.lower_third_enabled", false)
	v.SetDefault("overlay.lower_third_font", "sans")
	v.SetDefault("overlay.lower_third_size", 32)
	v.SetDefault("overlay.lower_third_fg_color", "#FFFFFF")
	v.SetDefault("overlay.lower_third_bg_color", "#000000")
	v.SetDefault("overlay.lower_third_bg_opacity", 0.6)
	v.SetDefault("overlay.lower_third_position", "bottom-left")

	v.SetDefault("ffmpeg.binary_path", "")
	v.SetDefault("ffmpeg.probe_path", "")
	v.SetDefault("ffmpeg.hwaccel_priority", []string{"vaapi", "nvenc", "qsv", "amf"})
}

// Validate checks the configuration for errors. Per §7, configuration
// errors are surfaced at the entry point that triggered them and never
// alter a running subsystem.
func (c *Config) Validate() error {
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, postgres, mysql")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	validSensitivity := map[string]bool{"high": true, "default": true, "low": true}
	if !validSensitivity[strings.ToLower(c.AutoCut.Sensitivity)] {
		return fmt.Errorf("autocut.sensitivity must be one of: high, default, low")
	}
	if c.AutoCut.ROIWidth <= 0 || c.AutoCut.ROIHeight <= 0 {
		return fmt.Errorf("autocut.roi_width and roi_height must be positive")
	}
	if c.AutoCut.ROILeft+c.AutoCut.ROIWidth > 1.0001 || c.AutoCut.ROITop+c.AutoCut.ROIHeight > 1.0001 {
		return fmt.Errorf("autocut ROI must stay within normalized [0,1] bounds")
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// OutputPath returns the full path to the recordings directory.
func (c *StorageConfig) OutputPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.OutputDir)
}

// ClipPath returns the full path to the exported-clips directory.
func (c *StorageConfig) ClipPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.ClipDir)
}

// TempPath returns the full path to the temp directory.
func (c *StorageConfig) TempPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.TempDir)
}
