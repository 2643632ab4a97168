package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"hackathon-portal/internal/model"

	"github.com/google/uuid"
)

// Memory keeps every record in process. A single mutex serializes writers,
// which makes MutateSubmission atomic per team.
type Memory struct {
	mu          sync.Mutex
	config      *model.Config
	teams       map[string]model.Team
	submissions map[string]model.Submission
	problems    map[string]model.ProblemStatement
	admins      map[string]model.Account
	reviewers   map[string]model.Account
	scores      map[string]model.Score
	events      []model.Event
}

func NewMemory() *Memory {
	return &Memory{
		teams:       make(map[string]model.Team),
		submissions: make(map[string]model.Submission),
		problems:    make(map[string]model.ProblemStatement),
		admins:      make(map[string]model.Account),
		reviewers:   make(map[string]model.Account),
		scores:      make(map[string]model.Score),
	}
}

func (m *Memory) GetConfig(ctx context.Context) (model.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config == nil {
		return model.Config{}, fmt.Errorf("config: %w", model.ErrNotFound)
	}
	return *m.config, nil
}

func (m *Memory) EnsureConfig(ctx context.Context, defaults model.Config) (model.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config == nil {
		cfg := defaults
		m.config = &cfg
	}
	return *m.config, nil
}

func (m *Memory) UpdateConfig(ctx context.Context, update func(cfg *model.Config) error) (model.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config == nil {
		return model.Config{}, fmt.Errorf("config: %w", model.ErrNotFound)
	}
	next := *m.config
	if err := update(&next); err != nil {
		return model.Config{}, err
	}
	m.config = &next
	return next, nil
}

func (m *Memory) CreateTeam(ctx context.Context, team model.Team) (model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.teams {
		if strings.EqualFold(existing.Name, team.Name) {
			return model.Team{}, fmt.Errorf("team %q: %w", team.Name, model.ErrConflict)
		}
	}
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	m.teams[team.ID] = team
	return team, nil
}

func (m *Memory) GetTeam(ctx context.Context, id string) (model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	team, ok := m.teams[id]
	if !ok {
		return model.Team{}, fmt.Errorf("team: %w", model.ErrNotFound)
	}
	return team, nil
}

func (m *Memory) FindTeamByName(ctx context.Context, name string) (model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, team := range m.teams {
		if strings.EqualFold(team.Name, strings.TrimSpace(name)) {
			return team, nil
		}
	}
	return model.Team{}, fmt.Errorf("team: %w", model.ErrNotFound)
}

func (m *Memory) ListTeams(ctx context.Context) ([]model.TeamOverview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]model.TeamOverview, 0, len(m.teams))
	for _, team := range m.teams {
		overview := model.TeamOverview{Team: team}
		if sub, ok := m.submissions[team.ID]; ok {
			copied := cloneSubmission(sub)
			overview.Submission = &copied
		}
		list = append(list, overview)
	}
	sort.Slice(list, func(i, j int) bool {
		return strings.ToLower(list[i].Team.Name) < strings.ToLower(list[j].Team.Name)
	})
	return list, nil
}

func (m *Memory) UpdateTeam(ctx context.Context, id string, update func(team *model.Team) error) (model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	team, ok := m.teams[id]
	if !ok {
		return model.Team{}, fmt.Errorf("team: %w", model.ErrNotFound)
	}
	if err := update(&team); err != nil {
		return model.Team{}, err
	}
	m.teams[id] = team
	return team, nil
}

func (m *Memory) DeleteTeamCascade(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	team, ok := m.teams[id]
	if !ok {
		return fmt.Errorf("team: %w", model.ErrNotFound)
	}
	if sub, ok := m.submissions[id]; ok {
		for key, score := range m.scores {
			if score.SubmissionID == sub.ID {
				delete(m.scores, key)
			}
		}
		delete(m.submissions, id)
	}
	for pid, problem := range m.problems {
		if problem.AllottedToTeam(team) {
			problem.AllottedTo = nil
			m.problems[pid] = problem
		}
	}
	delete(m.teams, id)
	return nil
}

func (m *Memory) GetSubmission(ctx context.Context, teamID string) (model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.submissions[teamID]
	if !ok {
		return model.Submission{}, fmt.Errorf("submission: %w", model.ErrNotFound)
	}
	return cloneSubmission(sub), nil
}

func (m *Memory) MutateSubmission(ctx context.Context, teamID string, create bool, fn SubmissionMutator) (model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[teamID]; !ok {
		return model.Submission{}, fmt.Errorf("team: %w", model.ErrNotFound)
	}
	current, ok := m.submissions[teamID]
	if !ok {
		if !create {
			return model.Submission{}, fmt.Errorf("submission: %w", model.ErrNotFound)
		}
		current = model.Submission{
			ID:            uuid.NewString(),
			TeamID:        teamID,
			Status:        model.StatusNotStarted,
			CanRegenerate: true,
		}
	}
	next := cloneSubmission(current)
	if err := fn(&next); err != nil {
		return model.Submission{}, err
	}
	for i := range next.Certificates {
		if next.Certificates[i].ID == "" {
			next.Certificates[i].ID = uuid.NewString()
		}
	}
	next.UpdatedAt = time.Now().UTC()
	m.submissions[teamID] = next
	return cloneSubmission(next), nil
}

func (m *Memory) CreateProblem(ctx context.Context, problem model.ProblemStatement) (model.ProblemStatement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if problem.ID == "" {
		problem.ID = uuid.NewString()
	}
	if problem.CreatedAt.IsZero() {
		problem.CreatedAt = time.Now().UTC()
	}
	m.problems[problem.ID] = problem
	return problem, nil
}

func (m *Memory) GetProblem(ctx context.Context, id string) (model.ProblemStatement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	problem, ok := m.problems[id]
	if !ok {
		return model.ProblemStatement{}, fmt.Errorf("problem statement: %w", model.ErrNotFound)
	}
	return problem, nil
}

func (m *Memory) ListProblems(ctx context.Context) ([]model.ProblemStatement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]model.ProblemStatement, 0, len(m.problems))
	for _, problem := range m.problems {
		list = append(list, problem)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].QuestionNo == list[j].QuestionNo {
			return list[i].ID < list[j].ID
		}
		return list[i].QuestionNo < list[j].QuestionNo
	})
	return list, nil
}

func (m *Memory) AllotProblem(ctx context.Context, id string, allottedTo *string) (model.ProblemStatement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	problem, ok := m.problems[id]
	if !ok {
		return model.ProblemStatement{}, fmt.Errorf("problem statement: %w", model.ErrNotFound)
	}
	problem.AllottedTo = allottedTo
	m.problems[id] = problem
	return problem, nil
}

func (m *Memory) DeleteProblem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.problems[id]; !ok {
		return fmt.Errorf("problem statement: %w", model.ErrNotFound)
	}
	delete(m.problems, id)
	for tid, team := range m.teams {
		if team.SelectedProblemID != nil && *team.SelectedProblemID == id {
			team.SelectedProblemID = nil
			m.teams[tid] = team
		}
	}
	return nil
}

func (m *Memory) FindAdminByEmail(ctx context.Context, email string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.admins[strings.ToLower(email)]
	if !ok {
		return model.Account{}, fmt.Errorf("admin: %w", model.ErrNotFound)
	}
	return account, nil
}

func (m *Memory) UpsertAdmin(ctx context.Context, email, passwordHash string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(email)
	account, ok := m.admins[key]
	if !ok {
		account = model.Account{ID: uuid.NewString(), Email: key}
	}
	account.PasswordHash = passwordHash
	m.admins[key] = account
	return account, nil
}

func (m *Memory) FindReviewerByEmail(ctx context.Context, email string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.reviewers[strings.ToLower(email)]
	if !ok {
		return model.Account{}, fmt.Errorf("reviewer: %w", model.ErrNotFound)
	}
	return account, nil
}

func (m *Memory) CreateReviewer(ctx context.Context, reviewer model.Account) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(reviewer.Email)
	if _, ok := m.reviewers[key]; ok {
		return model.Account{}, fmt.Errorf("reviewer %q: %w", reviewer.Email, model.ErrConflict)
	}
	if reviewer.ID == "" {
		reviewer.ID = uuid.NewString()
	}
	reviewer.Email = key
	m.reviewers[key] = reviewer
	return reviewer, nil
}

func (m *Memory) UpsertScore(ctx context.Context, score model.Score) (model.Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for _, sub := range m.submissions {
		if sub.ID == score.SubmissionID {
			found = true
			break
		}
	}
	if !found {
		return model.Score{}, fmt.Errorf("submission: %w", model.ErrNotFound)
	}
	if score.UpdatedAt.IsZero() {
		score.UpdatedAt = time.Now().UTC()
	}
	m.scores[score.SubmissionID+"/"+score.ReviewerID] = score
	return score, nil
}

func (m *Memory) ListScores(ctx context.Context, submissionID string) ([]model.Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]model.Score, 0)
	for _, score := range m.scores {
		if score.SubmissionID == submissionID {
			list = append(list, score)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ReviewerID < list[j].ReviewerID
	})
	return list, nil
}

func (m *Memory) RecordEvent(ctx context.Context, event model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of the recorded audit trail.
func (m *Memory) Events() []model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *Memory) ResetEvent(ctx context.Context, defaults model.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams = make(map[string]model.Team)
	m.submissions = make(map[string]model.Submission)
	m.problems = make(map[string]model.ProblemStatement)
	m.scores = make(map[string]model.Score)
	cfg := defaults
	m.config = &cfg
	return nil
}

func cloneSubmission(sub model.Submission) model.Submission {
	out := sub
	if sub.Content != nil {
		out.Content = append([]byte(nil), sub.Content...)
	}
	if sub.Certificates != nil {
		out.Certificates = append([]model.Certificate(nil), sub.Certificates...)
	}
	return out
}
