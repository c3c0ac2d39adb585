package filename

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 7, 29, 14, 5, 9, 0, time.UTC)
	return func() time.Time { return t }
}

func TestGenerator_DateTimeComponents(t *testing.T) {
	g := NewWithClock(fixedClock())
	got := g.Generate("{year}-{month}-{day}_{hour}-{minute}-{second}", Context{})
	assert.Equal(t, "2026-07-29_14-05-09", got)
}

func TestGenerator_DefaultDateTimeFormats(t *testing.T) {
	g := NewWithClock(fixedClock())
	assert.Equal(t, "2026-07-29", g.Generate("{date}", Context{}))
	assert.Equal(t, "14-05-09", g.Generate("{time}", Context{}))
	assert.Equal(t, "20260729_140509", g.Generate("{datetime}", Context{}))
}

func TestGenerator_CounterIsMonotonicAndPadded(t *testing.T) {
	g := NewWithClock(fixedClock())
	assert.Equal(t, "001", g.Generate("{counter}", Context{}))
	assert.Equal(t, "002", g.Generate("{counter}", Context{}))
	assert.Equal(t, "0003", g.Generate("{counter:4}", Context{}))
}

func TestGenerator_CallSiteContextVariables(t *testing.T) {
	g := NewWithClock(fixedClock())
	ctx := Context{Preset: "broadcast-1080p", Timecode: "01:02:03:04", Name: "swing"}
	got := g.Generate("{preset}_{timecode}_{name}", ctx)
	assert.Equal(t, "broadcast-1080p_01_02_03_04_swing", got)
}

func TestGenerator_EmptyNameCollapsesSurroundingUnderscores(t *testing.T) {
	g := NewWithClock(fixedClock())
	got := g.Generate("clip_{name}_final", Context{})
	assert.Equal(t, "clip_final", got)
}

func TestGenerator_SanitizesInvalidCharacters(t *testing.T) {
	g := NewWithClock(fixedClock())
	ctx := Context{Name: "Swing 01: Driver/7i?"}
	got := g.Generate("{name}", ctx)
	assert.NotContains(t, got, " ")
	assert.NotContains(t, got, ":")
	assert.NotContains(t, got, "/")
	assert.NotContains(t, got, "?")
}

func TestGenerator_CustomVariableOverridesBuiltin(t *testing.T) {
	g := NewWithClock(fixedClock())
	got := g.Generate("{preset}", Context{Preset: "ignored", Custom: map[string]string{"preset": "custom-value"}})
	assert.Equal(t, "custom-value", got)
}

func TestGenerator_GenerateUniqueAppendsCounterOnCollision(t *testing.T) {
	g := NewWithClock(fixedClock())
	taken := map[string]bool{
		"/out/clip.mp4":     true,
		"/out/clip_001.mp4": true,
	}
	exists := func(path string) bool { return taken[path] }

	got := g.GenerateUnique("clip", "/out", "mp4", Context{}, exists)
	assert.Equal(t, "/out/clip_002.mp4", got)
}

func TestGenerator_GenerateUniqueReturnsImmediatelyWhenFree(t *testing.T) {
	g := NewWithClock(fixedClock())
	got := g.GenerateUnique("clip", "/out", "mp4", Context{}, func(string) bool { return false })
	assert.Equal(t, "/out/clip.mp4", got)
}
