package main

import (
	"fmt"
	"strings"

	"hackathon-portal/internal/auth"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the schema, the default configuration and the admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, cfg, err := openStore()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		conf, err := st.EnsureConfig(ctx, configDefaults(cfg))
		if err != nil {
			return fmt.Errorf("seed configuration: %w", err)
		}
		fmt.Printf("configuration: %d minutes, paused=%t\n", conf.DurationMinutes, conf.IsPaused)

		email, _ := cmd.Flags().GetString("admin-email")
		password, _ := cmd.Flags().GetString("admin-password")
		if email == "" {
			email = cfg.AdminEmail
		}
		if password == "" {
			password = cfg.AdminPassword
		}
		if strings.TrimSpace(email) == "" || password == "" {
			fmt.Println("no admin credentials given; skipping admin account")
			return nil
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		admin, err := st.UpsertAdmin(ctx, email, hash)
		if err != nil {
			return fmt.Errorf("upsert admin: %w", err)
		}
		fmt.Printf("admin account %s ready\n", admin.Email)
		return nil
	},
}

func init() {
	initCmd.Flags().String("admin-email", "", "admin email (or ADMIN_EMAIL env var)")
	initCmd.Flags().String("admin-password", "", "admin password (or ADMIN_PASSWORD env var)")
}
