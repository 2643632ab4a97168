package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"hackathon-portal/internal/model"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type problemFile struct {
	Problems []problemEntry `yaml:"problems"`
}

type problemEntry struct {
	QuestionNo   string `yaml:"question_no"`
	SubDivisions string `yaml:"sub_divisions"`
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	AllottedTo   string `yaml:"allotted_to"`
}

var loadProblemsCmd = &cobra.Command{
	Use:   "load-problems [file]",
	Short: "Create problem statements from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		problems, err := readProblems(args[0])
		if err != nil {
			return err
		}
		st, _, err := openStore()
		if err != nil {
			return err
		}
		for _, problem := range problems {
			created, err := st.CreateProblem(cmd.Context(), problem)
			if err != nil {
				return fmt.Errorf("create problem %s: %w", problem.QuestionNo, err)
			}
			fmt.Printf("%s  %s  %s\n", created.ID, created.QuestionNo, created.Title)
		}
		fmt.Printf("loaded %d problem statements\n", len(problems))
		return nil
	},
}

func readProblems(path string) ([]model.ProblemStatement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file problemFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make([]model.ProblemStatement, 0, len(file.Problems))
	for i, entry := range file.Problems {
		problem := model.ProblemStatement{
			QuestionNo:   strings.TrimSpace(entry.QuestionNo),
			SubDivisions: strings.TrimSpace(entry.SubDivisions),
			Title:        strings.TrimSpace(entry.Title),
			Description:  strings.TrimSpace(entry.Description),
		}
		if problem.QuestionNo == "" || problem.Title == "" || problem.Description == "" {
			return nil, fmt.Errorf("problem %d: question_no, title and description are required", i+1)
		}
		if allotted := strings.TrimSpace(entry.AllottedTo); allotted != "" {
			problem.AllottedTo = &allotted
		}
		out = append(out, problem)
	}
	if len(out) == 0 {
		return nil, errors.New("no problems found")
	}
	return out, nil
}
