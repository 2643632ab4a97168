package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var newMigrationCmd = &cobra.Command{
	Use:   "new-migration [name]",
	Short: "Create an empty up/down SQL migration pair",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		upPath, downPath, err := createMigration(dir, args[0], time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Printf("created %s and %s\n", upPath, downPath)
		return nil
	},
}

func init() {
	newMigrationCmd.Flags().String("dir", filepath.Join("db", "migrations"), "migrations directory")
}

func createMigration(dir, name string, now time.Time) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("migration name is required")
	}
	if strings.ContainsAny(name, " /\\") {
		return "", "", fmt.Errorf("migration name must not contain spaces or slashes")
	}
	base := fmt.Sprintf("%s_%s", now.Format("20060102150405"), name)
	upPath := filepath.Join(dir, base+".up.sql")
	downPath := filepath.Join(dir, base+".down.sql")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create migrations dir: %w", err)
	}
	if err := writeNewFile(upPath, "-- up migration\n"); err != nil {
		return "", "", err
	}
	if err := writeNewFile(downPath, "-- down migration\n"); err != nil {
		return "", "", err
	}
	return upPath, downPath, nil
}

func writeNewFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
