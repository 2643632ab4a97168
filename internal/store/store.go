// Package store persists portal state. Gorm is the production backend; Memory
// serves tests and database-less development runs.
package store

import (
	"context"

	"hackathon-portal/internal/model"
)

// SubmissionMutator edits a submission in place. Returning an error aborts the
// write and leaves the stored row untouched.
type SubmissionMutator func(sub *model.Submission) error

type Store interface {
	GetConfig(ctx context.Context) (model.Config, error)
	EnsureConfig(ctx context.Context, defaults model.Config) (model.Config, error)
	UpdateConfig(ctx context.Context, update func(cfg *model.Config) error) (model.Config, error)

	CreateTeam(ctx context.Context, team model.Team) (model.Team, error)
	GetTeam(ctx context.Context, id string) (model.Team, error)
	FindTeamByName(ctx context.Context, name string) (model.Team, error)
	ListTeams(ctx context.Context) ([]model.TeamOverview, error)
	UpdateTeam(ctx context.Context, id string, update func(team *model.Team) error) (model.Team, error)
	DeleteTeamCascade(ctx context.Context, id string) error

	GetSubmission(ctx context.Context, teamID string) (model.Submission, error)
	// MutateSubmission applies fn atomically for one team. When create is true
	// and no row exists, fn receives a fresh NOT_STARTED submission.
	MutateSubmission(ctx context.Context, teamID string, create bool, fn SubmissionMutator) (model.Submission, error)

	CreateProblem(ctx context.Context, problem model.ProblemStatement) (model.ProblemStatement, error)
	GetProblem(ctx context.Context, id string) (model.ProblemStatement, error)
	ListProblems(ctx context.Context) ([]model.ProblemStatement, error)
	AllotProblem(ctx context.Context, id string, allottedTo *string) (model.ProblemStatement, error)
	DeleteProblem(ctx context.Context, id string) error

	FindAdminByEmail(ctx context.Context, email string) (model.Account, error)
	UpsertAdmin(ctx context.Context, email, passwordHash string) (model.Account, error)
	FindReviewerByEmail(ctx context.Context, email string) (model.Account, error)
	CreateReviewer(ctx context.Context, reviewer model.Account) (model.Account, error)

	UpsertScore(ctx context.Context, score model.Score) (model.Score, error)
	ListScores(ctx context.Context, submissionID string) ([]model.Score, error)

	RecordEvent(ctx context.Context, event model.Event) error

	// ResetEvent wipes teams, submissions, certificates and problems, and
	// restores the configuration defaults. Admin and reviewer accounts stay.
	ResetEvent(ctx context.Context, defaults model.Config) error
}

// ProblemsForTeam filters problems allotted to the team by id or name.
func ProblemsForTeam(problems []model.ProblemStatement, team model.Team) []model.ProblemStatement {
	out := make([]model.ProblemStatement, 0)
	for _, problem := range problems {
		if problem.AllottedToTeam(team) {
			out = append(out, problem)
		}
	}
	return out
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Gorm)(nil)
)
