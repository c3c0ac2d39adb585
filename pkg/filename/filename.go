// Package filename generates filesystem-safe names from a small
// template language: wall-clock components, a process-local counter,
// a GUID fragment, host identity, and call-site-supplied variables
// (preset, timecode, name, and any custom key the caller provides).
package filename

import (
	"fmt"
	"os"
	"os/user"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultDateFormat     = "2006-01-02"
	defaultTimeFormat     = "15-04-05"
	defaultDatetimeFormat = "20060102_150405"
	defaultCounterDigits  = 3
)

var templateVar = regexp.MustCompile(`\{([a-zA-Z_]+)(?::([^}]*))?\}`)

var invalidChars = regexp.MustCompile(`[<>:"/\\|?*\s]+`)

// Context carries the call-site values substituted for {preset},
// {timecode}, {name}, and any custom variables; Custom overrides are
// looked up before the built-in variables are considered, so callers
// can shadow a built-in if they need to.
type Context struct {
	Preset   string
	Timecode string
	Name     string
	Custom   map[string]string
}

// Generator renders templates against wall-clock "now" and a process-
// local, mutex-guarded counter — per spec.md §5's "filename generator's
// counter is protected by a mutex".
type Generator struct {
	mu      sync.Mutex
	counter int
	now     func() time.Time
}

// New creates a Generator using the real wall clock.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock creates a Generator with an injectable clock, for tests.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Generate renders template against ctx, then replaces filesystem-
// invalid characters and spaces with underscores.
func (g *Generator) Generate(template string, ctx Context) string {
	now := g.now()
	rendered := templateVar.ReplaceAllStringFunc(template, func(match string) string {
		parts := templateVar.FindStringSubmatch(match)
		name := strings.ToLower(parts[1])
		arg := parts[2]
		return g.resolve(name, arg, now, ctx)
	})
	rendered = sanitize(rendered)
	if ctx.Name == "" {
		rendered = collapseEmptyNameGaps(rendered)
	}
	return rendered
}

// collapseEmptyNameGaps removes the double-underscore left behind when
// a {name} placeholder resolves to empty between two literal
// underscores, and trims a leading/trailing underscore run.
func collapseEmptyNameGaps(s string) string {
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

func (g *Generator) resolve(name, arg string, now time.Time, ctx Context) string {
	if v, ok := ctx.Custom[name]; ok {
		return v
	}

	switch name {
	case "date":
		return now.Format(formatOrDefault(arg, defaultDateFormat))
	case "time":
		return now.Format(formatOrDefault(arg, defaultTimeFormat))
	case "datetime":
		return now.Format(formatOrDefault(arg, defaultDatetimeFormat))
	case "year":
		return fmt.Sprintf("%04d", now.Year())
	case "month":
		return fmt.Sprintf("%02d", int(now.Month()))
	case "day":
		return fmt.Sprintf("%02d", now.Day())
	case "hour":
		return fmt.Sprintf("%02d", now.Hour())
	case "minute":
		return fmt.Sprintf("%02d", now.Minute())
	case "second":
		return fmt.Sprintf("%02d", now.Second())
	case "counter":
		digits := defaultCounterDigits
		if n, err := strconv.Atoi(arg); err == nil && n > 0 {
			digits = n
		}
		return g.nextCounter(digits)
	case "guid":
		return shortGUID()
	case "hostname":
		host, err := os.Hostname()
		if err != nil {
			return "unknown-host"
		}
		return host
	case "username":
		u, err := user.Current()
		if err != nil {
			return "unknown-user"
		}
		return u.Username
	case "preset":
		return ctx.Preset
	case "timecode":
		return ctx.Timecode
	case "name":
		return ctx.Name
	default:
		return ""
	}
}

func (g *Generator) nextCounter(digits int) string {
	g.mu.Lock()
	g.counter++
	n := g.counter
	g.mu.Unlock()
	return fmt.Sprintf("%0*d", digits, n)
}

func formatOrDefault(arg, def string) string {
	if arg == "" {
		return def
	}
	return goTimeLayout(arg)
}

// goTimeLayout translates a small set of common strftime-ish tokens
// (yyyy, MM, dd, HH, mm, ss) to Go's reference-time layout, since the
// template language's format strings are written in that convention
// (see spec.md §4.9's default formats).
func goTimeLayout(layout string) string {
	replacer := strings.NewReplacer(
		"yyyy", "2006",
		"MM", "01",
		"dd", "02",
		"HH", "15",
		"mm", "04",
		"ss", "05",
	)
	return replacer.Replace(layout)
}

func shortGUID() string {
	id := uuid.New().String()
	return strings.ReplaceAll(id, "-", "")[:8]
}

func sanitize(s string) string {
	return invalidChars.ReplaceAllString(s, "_")
}

// Exists reports whether a path is already taken. Callers pass a
// closure over their filesystem (or a repository, for virtual
// namespaces) rather than this package depending on os.Stat directly.
type Exists func(path string) bool

// GenerateUnique renders template, then appends "_NNN" (001..999) on
// collision against exists, and as a last resort appends a {guid}
// fragment if every numbered suffix is also taken.
func (g *Generator) GenerateUnique(template, dir, ext string, ctx Context, exists Exists) string {
	base := g.Generate(template, ctx)
	candidate := joinNameExt(dir, base, ext)
	if !exists(candidate) {
		return candidate
	}

	for n := 1; n <= 999; n++ {
		candidate = joinNameExt(dir, fmt.Sprintf("%s_%03d", base, n), ext)
		if !exists(candidate) {
			return candidate
		}
	}

	return joinNameExt(dir, base+"_"+shortGUID(), ext)
}

func joinNameExt(dir, name, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if dir == "" {
		return name + ext
	}
	return strings.TrimRight(dir, "/") + "/" + name + ext
}
