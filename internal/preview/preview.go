package preview

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/awtempo/awtempo/internal/model"
)

// Time layouts used inside the preview document. Start times are date-local
// and carry no zone so the file stays hand-editable.
const (
	dateLayout  = "2006-01-02"
	startLayout = "2006-01-02T15:04:05"
)

// Document is the human-editable preview artifact written between
// computation and submission. A hand-edited document with the same shape
// reloads into the same entry set without re-running the engine.
type Document struct {
	GeneratedDate    string      `json:"generated_date"`
	ProcessingPeriod PeriodInfo  `json:"processing_period"`
	TotalHours       float64     `json:"total_hours"`
	Entries          []EntryInfo `json:"entries"`
}

// PeriodInfo is the serialized processing period.
type PeriodInfo struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Mode      string `json:"mode"`
}

// EntryInfo is one serialized worklog entry. On load, "comment" is accepted
// as an alias of "description".
type EntryInfo struct {
	JiraKey         string `json:"jira_key"`
	StartTime       string `json:"start_time"`
	DurationSeconds int64  `json:"duration_seconds"`
	Description     string `json:"description"`
	Comment         string `json:"comment,omitempty"`
	Source          string `json:"source"`
}

// Build assembles a Document from placed entries. Lunch entries are included
// so the user sees the full day layout, but excluded from total_hours.
func Build(entries []model.WorklogEntry, period model.Period, now time.Time) Document {
	sorted := append([]model.WorklogEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].JiraKey < sorted[j].JiraKey
	})

	doc := Document{
		GeneratedDate: now.Format(time.RFC3339),
		ProcessingPeriod: PeriodInfo{
			StartDate: period.Start.Format(dateLayout),
			EndDate:   period.End.Format(dateLayout),
			Mode:      period.Mode,
		},
	}
	var totalSeconds int64
	for _, e := range sorted {
		if e.Source != model.SourceLunch {
			totalSeconds += e.DurationSeconds
		}
		doc.Entries = append(doc.Entries, EntryInfo{
			JiraKey:         e.JiraKey,
			StartTime:       e.Start.Format(startLayout),
			DurationSeconds: e.DurationSeconds,
			Description:     e.Description,
			Source:          e.Source,
		})
	}
	doc.TotalHours = float64(totalSeconds) / 3600
	return doc
}

// ToEntries converts a loaded document back into worklog entries.
func (d Document) ToEntries() ([]model.WorklogEntry, error) {
	entries := make([]model.WorklogEntry, 0, len(d.Entries))
	for i, e := range d.Entries {
		if e.JiraKey == "" {
			return nil, fmt.Errorf("entry %d: jira_key is required", i)
		}
		if e.DurationSeconds <= 0 {
			return nil, fmt.Errorf("entry %d (%s): duration_seconds must be positive", i, e.JiraKey)
		}
		start, err := time.ParseInLocation(startLayout, e.StartTime, time.Local)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.JiraKey, err)
		}
		desc := e.Description
		if desc == "" {
			desc = e.Comment
		}
		source := e.Source
		if source == "" {
			source = model.SourceDetected
		}
		entries = append(entries, model.WorklogEntry{
			JiraKey:         e.JiraKey,
			Start:           start,
			DurationSeconds: e.DurationSeconds,
			Description:     desc,
			Source:          source,
		})
	}
	return entries, nil
}

// Period reconstructs the processing period from the document header.
func (d Document) Period() (model.Period, error) {
	start, err := time.ParseInLocation(dateLayout, d.ProcessingPeriod.StartDate, time.Local)
	if err != nil {
		return model.Period{}, fmt.Errorf("processing_period.start_date: %w", err)
	}
	end, err := time.ParseInLocation(dateLayout, d.ProcessingPeriod.EndDate, time.Local)
	if err != nil {
		return model.Period{}, fmt.Errorf("processing_period.end_date: %w", err)
	}
	mode := d.ProcessingPeriod.Mode
	if mode == "" {
		mode = model.ModeDaily
	}
	return model.Period{Start: start, End: end, Mode: mode}, nil
}

// Save atomically writes the document: write to a temp file, then rename.
func Save(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("preview error marshalling JSON: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("preview error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("preview error renaming temp file: %w", err)
	}
	return nil
}

// Load reads the document at path. Corrupt JSON is backed up alongside the
// original so a botched hand-edit is never lost.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Document{}, fmt.Errorf("preview file %s not found (run 'awtempo preview' first)", path)
	}
	if err != nil {
		return Document{}, fmt.Errorf("preview error reading %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return Document{}, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	return doc, nil
}

// Backup copies the document to path.backup after a successful submission.
func Backup(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("preview error reading %s: %w", path, err)
	}
	if err := os.WriteFile(path+".backup", data, 0o600); err != nil {
		return fmt.Errorf("preview error writing backup: %w", err)
	}
	return nil
}
