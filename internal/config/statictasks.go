package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/awtempo/awtempo/internal/timecalc"
)

// StaticTask is a configured recurring entry. Daily tasks have an empty
// DayOfWeek; weekly tasks name a lowercase weekday.
type StaticTask struct {
	Name            string `json:"name"`
	JiraKey         string `json:"jira_key"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	Description     string `json:"description"`
	Enabled         bool   `json:"enabled"`
	DayOfWeek       string `json:"day_of_week,omitempty"`
}

type staticTasksFile struct {
	DailyTasks  []StaticTask `json:"daily_tasks"`
	WeeklyTasks []StaticTask `json:"weekly_tasks"`
}

var validWeekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// LoadStaticTasks reads the daily and weekly task lists. A missing file
// yields an empty list; invalid times or durations are fatal configuration
// errors.
func LoadStaticTasks(path string) ([]StaticTask, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading static tasks file %s: %w", path, err)
	}

	var f staticTasksFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing static tasks file %s: %w", path, err)
	}

	tasks := make([]StaticTask, 0, len(f.DailyTasks)+len(f.WeeklyTasks))
	for _, t := range f.DailyTasks {
		t.DayOfWeek = ""
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("daily task %q: %w", t.Name, err)
		}
		tasks = append(tasks, t)
	}
	for _, t := range f.WeeklyTasks {
		if t.DayOfWeek == "" {
			return nil, fmt.Errorf("weekly task %q: day_of_week is required", t.Name)
		}
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("weekly task %q: %w", t.Name, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (t StaticTask) validate() error {
	if t.Name == "" || t.JiraKey == "" {
		return fmt.Errorf("name and jira_key are required")
	}
	if t.DurationMinutes <= 0 {
		return fmt.Errorf("duration_minutes must be positive")
	}
	ref := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := timecalc.ParseClock(t.Time, ref); err != nil {
		return err
	}
	if t.DayOfWeek != "" && !validWeekdays[t.DayOfWeek] {
		return fmt.Errorf("invalid day_of_week %q", t.DayOfWeek)
	}
	return nil
}

// staticTasksTemplate documents the task shape on first run.
const staticTasksTemplate = `{
  "daily_tasks": [
    {
      "name": "Standup",
      "jira_key": "SE-100",
      "time": "09:30",
      "duration_minutes": 15,
      "description": "Daily standup",
      "enabled": false
    }
  ],
  "weekly_tasks": [
    {
      "name": "Sprint planning",
      "jira_key": "SE-101",
      "time": "10:00",
      "duration_minutes": 60,
      "description": "Sprint planning",
      "enabled": false,
      "day_of_week": "monday"
    }
  ]
}
`

// WriteStaticTasksTemplate writes the example static tasks file. An existing
// file gains any missing top-level keys from the template; the user's task
// lists are never touched.
func WriteStaticTasksTemplate(path string) error {
	return writeJSONTemplate(path, staticTasksTemplate)
}
