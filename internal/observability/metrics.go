package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exported on /metrics, per §4.2/§4.4's "counters must be
// exported" requirement (dropped frames, pipeline write drops, and
// auto-cut triggers).
var (
	// DroppedFramesTotal counts frames a ring buffer dropped at the
	// head of queue, by device ID (§4.2 DropCount).
	DroppedFramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "golfcast_dropped_frames_total",
		Help: "Total number of video frames dropped by a ring buffer, by device.",
	}, []string{"device_id"})

	// EncodeDropCountTotal counts best-effort muxer writes that failed,
	// by input device ID (§4.3 "writes are best-effort").
	EncodeDropCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "golfcast_encode_drop_count_total",
		Help: "Total number of dropped writes to an encoding pipeline's muxer subprocess, by device.",
	}, []string{"device_id"})

	// CutTriggeredTotal counts program-source cuts the auto-cut
	// controller has emitted, by reason.
	CutTriggeredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "golfcast_cut_triggered_total",
		Help: "Total number of auto-cut program-source changes, by reason.",
	}, []string{"reason"})

	// ClipExportTotal counts completed clip exports, by terminal status
	// (completed/failed).
	ClipExportTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "golfcast_clip_export_total",
		Help: "Total number of clip export attempts, by terminal status.",
	}, []string{"status"})

	// RecordingsActive tracks whether a recording is currently in
	// progress (0 or 1) — a gauge rather than a counter since §4.4 has
	// at most one active recording at a time.
	RecordingsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "golfcast_recordings_active",
		Help: "1 if a recording is currently in progress, 0 otherwise.",
	})
)

// RecordDroppedFrame increments the dropped-frames counter for deviceID.
func RecordDroppedFrame(deviceID string) {
	DroppedFramesTotal.WithLabelValues(deviceID).Inc()
}

// RecordEncodeDrop increments the encode-pipeline drop counter for deviceID.
func RecordEncodeDrop(deviceID string) {
	EncodeDropCountTotal.WithLabelValues(deviceID).Inc()
}

// RecordCutTriggered increments the auto-cut trigger counter for reason.
func RecordCutTriggered(reason string) {
	CutTriggeredTotal.WithLabelValues(reason).Inc()
}

// RecordClipExport increments the clip export counter for status
// ("completed" or "failed").
func RecordClipExport(status string) {
	ClipExportTotal.WithLabelValues(status).Inc()
}
