package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/awtempo/awtempo/internal/preview"
	"github.com/awtempo/awtempo/internal/timecalc"
)

var showFormat string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current preview file to stdout",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showFormat, "format", "md", "Output format: md, csv, json")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	doc, err := preview.Load(cfg.PreviewPath)
	if err != nil {
		return err
	}

	switch showFormat {
	case "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		fmt.Println(string(data))
	case "csv":
		printCSV(doc)
	case "md":
		printMarkdown(doc)
	default:
		return fmt.Errorf("unknown format %q: want md, csv or json", showFormat)
	}
	return nil
}

func printMarkdown(doc preview.Document) {
	fmt.Printf("# Worklog preview %s – %s (%s)\n\n",
		doc.ProcessingPeriod.StartDate, doc.ProcessingPeriod.EndDate, doc.ProcessingPeriod.Mode)
	fmt.Println("| Start | Ticket | Duration | Description | Source |")
	fmt.Println("|-------|--------|----------|-------------|--------|")
	for _, e := range doc.Entries {
		fmt.Printf("| %s | %s | %s | %s | %s |\n",
			e.StartTime, e.JiraKey,
			timecalc.FormatDuration(e.DurationSeconds),
			e.Description, e.Source)
	}
	fmt.Printf("\nTotal: %.2fh\n", doc.TotalHours)
}

func printCSV(doc preview.Document) {
	fmt.Println("jira_key,start_time,duration_minutes,description,source")
	for _, e := range doc.Entries {
		fmt.Printf("%s,%s,%d,%s,%s\n",
			csvEscape(e.JiraKey),
			csvEscape(e.StartTime),
			e.DurationSeconds/60,
			csvEscape(e.Description),
			csvEscape(e.Source),
		)
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	needsQuote := false
	for _, c := range s {
		if c == ',' || c == '"' || c == '\n' || c == '\r' {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return s
	}
	// Escape internal double quotes by doubling them.
	escaped := ""
	for _, c := range s {
		if c == '"' {
			escaped += "\""
		}
		escaped += string(c)
	}
	return `"` + escaped + `"`
}
