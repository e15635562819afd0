package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/awtempo/awtempo/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create annotated config, mapping and static task templates",
	Long: `init creates ~/.awtempo/ with an annotated config.toml plus example
mappings.json and static_tasks.json. Existing files are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	if err := config.WriteTemplate(path); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := config.WriteMappingsTemplate(filepath.Join(dir, "mappings.json")); err != nil {
		return err
	}
	if err := config.WriteStaticTasksTemplate(filepath.Join(dir, "static_tasks.json")); err != nil {
		return err
	}

	fmt.Printf("Configuration templates ready in %s\n", dir)
	fmt.Println("Edit config.toml (jira_url, jira_token) before the first run.")
	return nil
}
