package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/awtempo/awtempo/internal/timecalc"
)

// Config is the root configuration for awtempo, stored in ~/.awtempo/config.toml.
type Config struct {
	// JiraURL is the base URL of the Jira instance hosting Tempo Timesheets.
	JiraURL string `toml:"jira_url"`
	// JiraToken is a personal access token with worklog permissions.
	JiraToken string `toml:"jira_token"`
	// WorkerID is the Tempo worker key. "auto" resolves it from the token.
	WorkerID string `toml:"worker_id"`

	ActivityWatchURL string `toml:"activitywatch_url"`

	WorkingHoursPerDay     float64  `toml:"working_hours_per_day"`
	TimeRoundingMinutes    int      `toml:"time_rounding_minutes"`
	MinimumActivitySeconds int64    `toml:"minimum_activity_duration_seconds"`
	TicketPattern          string   `toml:"ticket_pattern"`
	ExcludedApps           []string `toml:"excluded_apps"`
	ShortActivityMinutes   int      `toml:"short_activity_minutes"`

	DefaultMode     string `toml:"default_mode"`
	PreviewPath     string `toml:"preview_path"`
	MappingsPath    string `toml:"mappings_path"`
	StaticTasksPath string `toml:"static_tasks_path"`

	LogLevel string `toml:"log_level"`

	Lunch      LunchConfig      `toml:"lunch"`
	Allocation AllocationConfig `toml:"allocation"`
	Scheduler  SchedulerConfig  `toml:"scheduler"`
}

// LunchConfig blocks a fixed midday slot that no activity may overlap.
type LunchConfig struct {
	Enabled         bool   `toml:"enabled"`
	Time            string `toml:"time"`
	DurationMinutes int    `toml:"duration_minutes"`
}

// AllocationConfig controls sequential placement across the working day.
type AllocationConfig struct {
	Enabled             bool   `toml:"enabled"`
	WorkStartTime       string `toml:"work_start_time"`
	WorkEndTime         string `toml:"work_end_time"`
	GapMinutes          int    `toml:"gap_minutes"`
	StaticTasksPriority bool   `toml:"static_tasks_priority"`
}

// SchedulerConfig drives the periodic previous-day run.
type SchedulerConfig struct {
	// Spec is a standard five-field cron expression.
	Spec string `toml:"spec"`
	// Mode is "preview" or "direct".
	Mode string `toml:"mode"`
}

var validRounding = map[int]bool{1: true, 5: true, 10: true, 15: true, 30: true, 60: true}

// Default returns a Config pre-filled with the built-in defaults.
func Default() Config {
	return Config{
		WorkerID:               "auto",
		ActivityWatchURL:       "http://localhost:5600",
		WorkingHoursPerDay:     7.5,
		TimeRoundingMinutes:    15,
		MinimumActivitySeconds: 60,
		TicketPattern:          `SE-\d+`,
		ShortActivityMinutes:   30,
		DefaultMode:            "daily",
		LogLevel:               "info",
		Lunch: LunchConfig{
			Enabled:         false,
			Time:            "13:00",
			DurationMinutes: 30,
		},
		Allocation: AllocationConfig{
			Enabled:             true,
			WorkStartTime:       "08:00",
			WorkEndTime:         "17:30",
			GapMinutes:          5,
			StaticTasksPriority: true,
		},
		Scheduler: SchedulerConfig{
			Spec: "0 8 * * *",
			Mode: "preview",
		},
	}
}

// BaseDir returns the root data directory (~/.awtempo).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".awtempo"), nil
}

// DefaultPath returns the path to ~/.awtempo/config.toml.
func DefaultPath() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.toml"), nil
}

// Load reads and validates the config file at path. Missing optional values
// are back-filled with defaults; validation failures are fatal before any
// processing begins.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("config file %s not found (run 'awtempo init' to create it)", path)
		}
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.fillDefaults(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// fillDefaults replaces zero-value fields so callers always get a usable
// Config even when the user only partially fills in the file. Relative
// companion files resolve next to the config file.
func (c *Config) fillDefaults(dir string) {
	def := Default()
	if c.ActivityWatchURL == "" {
		c.ActivityWatchURL = def.ActivityWatchURL
	}
	if c.WorkerID == "" {
		c.WorkerID = def.WorkerID
	}
	if c.TicketPattern == "" {
		c.TicketPattern = def.TicketPattern
	}
	if c.DefaultMode == "" {
		c.DefaultMode = def.DefaultMode
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.PreviewPath == "" {
		c.PreviewPath = filepath.Join(dir, "tempo_preview.json")
	}
	if c.MappingsPath == "" {
		c.MappingsPath = filepath.Join(dir, "mappings.json")
	}
	if c.StaticTasksPath == "" {
		c.StaticTasksPath = filepath.Join(dir, "static_tasks.json")
	}
	if c.Scheduler.Spec == "" {
		c.Scheduler.Spec = def.Scheduler.Spec
	}
	if c.Scheduler.Mode == "" {
		c.Scheduler.Mode = def.Scheduler.Mode
	}
}

// Validate checks all settings the engine depends on. Any failure here is a
// configuration error and aborts the run before processing.
func (c Config) Validate() error {
	if c.JiraURL == "" {
		return fmt.Errorf("jira_url is required")
	}
	if !hasHTTPPrefix(c.JiraURL) {
		return fmt.Errorf("jira_url must start with http:// or https://")
	}
	if c.JiraToken == "" || c.JiraToken == "your-jira-pat-token" {
		return fmt.Errorf("jira_token is required and cannot be the placeholder")
	}
	if c.WorkingHoursPerDay <= 0 || c.WorkingHoursPerDay > 24 {
		return fmt.Errorf("working_hours_per_day must be between 0 and 24")
	}
	if !validRounding[c.TimeRoundingMinutes] {
		return fmt.Errorf("time_rounding_minutes must be one of 1, 5, 10, 15, 30, 60")
	}
	if c.MinimumActivitySeconds < 0 {
		return fmt.Errorf("minimum_activity_duration_seconds cannot be negative")
	}
	if c.ShortActivityMinutes < 0 {
		return fmt.Errorf("short_activity_minutes cannot be negative")
	}
	if _, err := regexp.Compile("(?i)" + c.TicketPattern); err != nil {
		return fmt.Errorf("ticket_pattern: %w", err)
	}
	if c.DefaultMode != "daily" && c.DefaultMode != "weekly" {
		return fmt.Errorf("default_mode must be daily or weekly")
	}

	ref := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	start, err := timecalc.ParseClock(c.Allocation.WorkStartTime, ref)
	if err != nil {
		return fmt.Errorf("allocation.work_start_time: %w", err)
	}
	end, err := timecalc.ParseClock(c.Allocation.WorkEndTime, ref)
	if err != nil {
		return fmt.Errorf("allocation.work_end_time: %w", err)
	}
	if !start.Before(end) {
		return fmt.Errorf("allocation.work_start_time must be before work_end_time")
	}
	if c.Allocation.GapMinutes < 0 {
		return fmt.Errorf("allocation.gap_minutes cannot be negative")
	}
	if c.Lunch.Enabled {
		if _, err := timecalc.ParseClock(c.Lunch.Time, ref); err != nil {
			return fmt.Errorf("lunch.time: %w", err)
		}
		if c.Lunch.DurationMinutes <= 0 {
			return fmt.Errorf("lunch.duration_minutes must be positive")
		}
	}
	if c.Scheduler.Mode != "preview" && c.Scheduler.Mode != "direct" {
		return fmt.Errorf("scheduler.mode must be preview or direct")
	}
	return nil
}

// CapSeconds is the daily submission cap in seconds.
func (c Config) CapSeconds() int64 {
	return int64(c.WorkingHoursPerDay * 3600)
}

func hasHTTPPrefix(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// configTemplate is the annotated config written on first run.
const configTemplate = `# awtempo configuration – ~/.awtempo/config.toml
#
# Jira instance hosting Tempo Timesheets and a personal access token with
# worklog permissions. worker_id = "auto" resolves your worker key from the
# token at startup.
jira_url = "https://jira.example.com"
jira_token = "your-jira-pat-token"
worker_id = "auto"

# ActivityWatch server to pull window-focus events from.
activitywatch_url = "http://localhost:5600"

# Daily cap; exceeding it blocks submission until the preview is trimmed.
working_hours_per_day = 7.5

# Durations round UP to this interval after placement: 1, 5, 10, 15, 30 or 60.
time_rounding_minutes = 15

# Merged activity per ticket below this total is dropped.
minimum_activity_duration_seconds = 60

# Fallback regex for ticket keys embedded in window titles.
ticket_pattern = 'SE-\d+'

# Apps whose unmatched activity is dropped without a diagnostic.
excluded_apps = ["Spotify", "Slack"]

# Entries shorter than this are flagged as trim candidates on overflow.
short_activity_minutes = 30

# "daily" or "weekly" (previous Mon–Fri week).
default_mode = "daily"

log_level = "info"

[lunch]
enabled = false
time = "13:00"
duration_minutes = 30

[allocation]
enabled = true
work_start_time = "08:00"
work_end_time = "17:30"
gap_minutes = 5
static_tasks_priority = true

[scheduler]
# Five-field cron expression for the previous-day run.
spec = "0 8 * * *"
# "preview" or "direct".
mode = "preview"
`

// WriteTemplate creates the config directory and writes the annotated default
// config. An existing file is merged non-destructively: settings the user has
// already set keep their values, defaults they lack are added.
func WriteTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
		return nil
	}
	return mergeTemplate(path)
}

func mergeTemplate(path string) error {
	var current map[string]any
	if _, err := toml.DecodeFile(path, &current); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	var defaults map[string]any
	if _, err := toml.Decode(configTemplate, &defaults); err != nil {
		return fmt.Errorf("decoding config template: %w", err)
	}
	if !addMissing(current, defaults) {
		return nil
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(current); err != nil {
		return fmt.Errorf("encoding merged config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing merged config: %w", err)
	}
	return nil
}

// addMissing copies keys present in defaults but absent from dst, descending
// into shared tables. User-set values are never overwritten.
func addMissing(dst, defaults map[string]any) bool {
	changed := false
	for key, dv := range defaults {
		cv, ok := dst[key]
		if !ok {
			dst[key] = dv
			changed = true
			continue
		}
		dm, defIsTable := dv.(map[string]any)
		cm, curIsTable := cv.(map[string]any)
		if defIsTable && curIsTable && addMissing(cm, dm) {
			changed = true
		}
	}
	return changed
}
