package main

import (
	"fmt"
	"strings"

	"hackathon-portal/internal/auth"
	"hackathon-portal/internal/model"

	"github.com/spf13/cobra"
)

var createTeamCmd = &cobra.Command{
	Use:   "create-team [name] [college]",
	Short: "Register a team",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		member1, _ := cmd.Flags().GetString("member1")
		member2, _ := cmd.Flags().GetString("member2")
		dept, _ := cmd.Flags().GetString("dept")
		year, _ := cmd.Flags().GetInt("year")

		st, _, err := openStore()
		if err != nil {
			return err
		}
		team, err := st.CreateTeam(cmd.Context(), model.Team{
			Name:    strings.Join(strings.Fields(args[0]), " "),
			College: strings.Join(strings.Fields(args[1]), " "),
			Member1: member1,
			Member2: member2,
			Dept:    dept,
			Year:    year,
		})
		if err != nil {
			return fmt.Errorf("create team: %w", err)
		}
		fmt.Printf("team %s created (%s)\n", team.Name, team.ID)
		return nil
	},
}

var createReviewerCmd = &cobra.Command{
	Use:   "create-reviewer [email] [name]",
	Short: "Register a reviewer account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		domain, _ := cmd.Flags().GetString("domain")
		if len(password) < 8 {
			return fmt.Errorf("--password must be at least 8 characters")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		st, _, err := openStore()
		if err != nil {
			return err
		}
		reviewer, err := st.CreateReviewer(cmd.Context(), model.Account{
			Email:        strings.ToLower(strings.TrimSpace(args[0])),
			Name:         strings.TrimSpace(args[1]),
			Domain:       domain,
			PasswordHash: hash,
		})
		if err != nil {
			return fmt.Errorf("create reviewer: %w", err)
		}
		fmt.Printf("reviewer %s created (%s)\n", reviewer.Email, reviewer.ID)
		return nil
	},
}

func init() {
	createTeamCmd.Flags().String("member1", "", "first member name")
	createTeamCmd.Flags().String("member2", "", "second member name")
	createTeamCmd.Flags().String("dept", "", "department")
	createTeamCmd.Flags().Int("year", 0, "year of study")

	createReviewerCmd.Flags().String("password", "", "reviewer password")
	createReviewerCmd.Flags().String("domain", "", "review domain")
}
