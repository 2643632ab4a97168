package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete teams, submissions and problems and restore the default configuration",
	Long:  "Admin and reviewer accounts are kept. Pass --yes to confirm.",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed, _ := cmd.Flags().GetBool("yes")
		if !confirmed {
			return fmt.Errorf("refusing to reset without --yes")
		}
		st, cfg, err := openStore()
		if err != nil {
			return err
		}
		if err := st.ResetEvent(cmd.Context(), configDefaults(cfg)); err != nil {
			return fmt.Errorf("reset event: %w", err)
		}
		fmt.Println("event data reset")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "confirm the reset")
}
