// Package workflow gates the team submission steps and the admin overrides
// that bypass them.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"hackathon-portal/internal/generator"
	"hackathon-portal/internal/model"
	"hackathon-portal/internal/store"
	"hackathon-portal/internal/timer"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Repository is the slice of the store the workflow needs.
type Repository interface {
	GetConfig(ctx context.Context) (model.Config, error)
	EnsureConfig(ctx context.Context, defaults model.Config) (model.Config, error)
	UpdateConfig(ctx context.Context, update func(cfg *model.Config) error) (model.Config, error)
	GetTeam(ctx context.Context, id string) (model.Team, error)
	UpdateTeam(ctx context.Context, id string, update func(team *model.Team) error) (model.Team, error)
	DeleteTeamCascade(ctx context.Context, id string) error
	GetSubmission(ctx context.Context, teamID string) (model.Submission, error)
	MutateSubmission(ctx context.Context, teamID string, create bool, fn store.SubmissionMutator) (model.Submission, error)
	GetProblem(ctx context.Context, id string) (model.ProblemStatement, error)
}

type Generator interface {
	Generate(ctx context.Context, req generator.Request) (generator.Result, error)
	GenerateExpertPitch(ctx context.Context, req generator.Request) (generator.Result, error)
}

// Timer is the countdown the halt flag is mirrored onto.
type Timer interface {
	SetPaused(paused bool) timer.Snapshot
	ResetToFull(durationMinutes int) timer.Snapshot
	Snapshot() timer.Snapshot
}

type Options struct {
	Repo      Repository
	Generator Generator
	Timer     Timer
	Clock     clockwork.Clock
	// DefaultDurationMinutes seeds the configuration row when it is missing.
	DefaultDurationMinutes int
}

type Service struct {
	repo     Repository
	gen      Generator
	timer    Timer
	clock    clockwork.Clock
	duration int

	mu       sync.Mutex
	inflight map[string]bool
}

func NewService(opts Options) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	duration := opts.DefaultDurationMinutes
	if duration <= 0 {
		duration = int(timer.DefaultDuration.Minutes())
	}
	return &Service{
		repo:     opts.Repo,
		gen:      opts.Generator,
		timer:    opts.Timer,
		clock:    clock,
		duration: duration,
		inflight: make(map[string]bool),
	}
}

// openConfig returns the configuration when team writes are allowed. A
// missing row counts as halted.
func (s *Service) openConfig(ctx context.Context) (model.Config, error) {
	cfg, err := s.repo.GetConfig(ctx)
	if errors.Is(err, model.ErrNotFound) {
		return model.Config{}, ErrSystemHalted
	}
	if err != nil {
		return model.Config{}, err
	}
	if cfg.IsPaused {
		return cfg, ErrSystemHalted
	}
	return cfg, nil
}

// SaveDraft stores the latest content, creating the submission on first use.
func (s *Service) SaveDraft(ctx context.Context, teamID string, content json.RawMessage) (model.Submission, error) {
	cfg, err := s.openConfig(ctx)
	if err != nil {
		return model.Submission{}, err
	}
	if cfg.EventEnded {
		return model.Submission{}, ErrWindowClosed
	}
	if len(content) == 0 || !json.Valid(content) {
		return model.Submission{}, invalid("content must be valid JSON")
	}
	sub, err := s.repo.MutateSubmission(ctx, teamID, true, func(sub *model.Submission) error {
		if sub.Status.Finalized() {
			return ErrLocked
		}
		sub.Content = append(json.RawMessage(nil), content...)
		if sub.Status == model.StatusNotStarted {
			sub.Status = model.StatusInProgress
		}
		return nil
	})
	if err != nil {
		return model.Submission{}, err
	}
	log.Debug().Str("team_id", teamID).Msg("draft saved")
	return sub, nil
}

// GenerateArtifact asks the delegate for the slide deck and marks the
// submission SUBMITTED. Only the first generation is free; later ones need
// canRegenerate.
func (s *Service) GenerateArtifact(ctx context.Context, teamID string) (model.Submission, error) {
	cfg, err := s.openConfig(ctx)
	if err != nil {
		return model.Submission{}, err
	}
	if cfg.EventEnded {
		return model.Submission{}, ErrWindowClosed
	}
	team, err := s.repo.GetTeam(ctx, teamID)
	if err != nil {
		return model.Submission{}, err
	}
	sub, err := s.repo.GetSubmission(ctx, teamID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Submission{}, missing(StepContent)
	}
	if err != nil {
		return model.Submission{}, err
	}
	if !sub.HasContent() {
		return model.Submission{}, missing(StepContent)
	}
	if err := checkRegenerate(sub); err != nil {
		return model.Submission{}, err
	}
	return s.generate(ctx, team, sub, generateOptions{}, s.gen.Generate)
}

// GenerateExpertPitch generates the expert pitch deck from the supplied
// project data under the same rules as GenerateArtifact. The data is stored as
// content only once the delegate succeeds.
func (s *Service) GenerateExpertPitch(ctx context.Context, teamID string, content json.RawMessage) (model.Submission, error) {
	cfg, err := s.openConfig(ctx)
	if err != nil {
		return model.Submission{}, err
	}
	if cfg.EventEnded {
		return model.Submission{}, ErrWindowClosed
	}
	team, err := s.repo.GetTeam(ctx, teamID)
	if err != nil {
		return model.Submission{}, err
	}
	if len(content) == 0 || !json.Valid(content) {
		return model.Submission{}, invalid("project data must be valid JSON")
	}
	sub, err := s.repo.GetSubmission(ctx, teamID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.Submission{}, err
	}
	if err := checkRegenerate(sub); err != nil {
		return model.Submission{}, err
	}
	sub.Content = append(json.RawMessage(nil), content...)
	return s.generate(ctx, team, sub, generateOptions{storeContent: true}, s.gen.GenerateExpertPitch)
}

// SubmitPrototype records the prototype link. Status is unchanged.
func (s *Service) SubmitPrototype(ctx context.Context, teamID, url string) (model.Submission, error) {
	if _, err := s.openConfig(ctx); err != nil {
		return model.Submission{}, err
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return model.Submission{}, invalid("prototype url is required")
	}
	sub, err := s.repo.MutateSubmission(ctx, teamID, false, func(sub *model.Submission) error {
		if sub.Status == model.StatusLocked {
			return ErrLocked
		}
		if sub.ArtifactURL == nil {
			return missing(StepArtifact)
		}
		sub.PrototypeURL = &url
		return nil
	})
	if errors.Is(err, model.ErrNotFound) {
		if _, teamErr := s.repo.GetTeam(ctx, teamID); teamErr != nil {
			return model.Submission{}, teamErr
		}
		return model.Submission{}, missing(StepArtifact)
	}
	if err != nil {
		return model.Submission{}, err
	}
	log.Info().Str("team_id", teamID).Msg("prototype submitted")
	return sub, nil
}

// SubmitCertificateInfo records the certificate holder and locks the
// submission. It is the last step a team can take alone.
func (s *Service) SubmitCertificateInfo(ctx context.Context, teamID, name, college, year string) (model.Submission, error) {
	if _, err := s.openConfig(ctx); err != nil {
		return model.Submission{}, err
	}
	name, college, year = strings.TrimSpace(name), strings.TrimSpace(college), strings.TrimSpace(year)
	if name == "" || college == "" || year == "" {
		return model.Submission{}, invalid("name, college and year are required")
	}
	sub, err := s.repo.MutateSubmission(ctx, teamID, false, func(sub *model.Submission) error {
		if sub.Status == model.StatusLocked {
			return ErrLocked
		}
		if sub.ArtifactURL == nil {
			return missing(StepArtifact)
		}
		if sub.PrototypeURL == nil {
			return missing(StepPrototype)
		}
		sub.CertificateName = &name
		sub.CertificateCollege = &college
		sub.CertificateYear = &year
		sub.Status = model.StatusLocked
		return nil
	})
	if errors.Is(err, model.ErrNotFound) {
		if _, teamErr := s.repo.GetTeam(ctx, teamID); teamErr != nil {
			return model.Submission{}, teamErr
		}
		return model.Submission{}, missing(StepArtifact)
	}
	if err != nil {
		return model.Submission{}, err
	}
	log.Info().Str("team_id", teamID).Msg("submission locked")
	return sub, nil
}

type Participant struct {
	Name    string `json:"name"`
	College string `json:"college"`
	Year    string `json:"year"`
	Dept    string `json:"dept"`
	Role    string `json:"role"`
}

// SubmitParticipantCertificates replaces the per-member certificate records.
// Admins open the collection window with ToggleCertificateCollection.
func (s *Service) SubmitParticipantCertificates(ctx context.Context, teamID string, participants []Participant) (model.Submission, error) {
	cfg, err := s.repo.GetConfig(ctx)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.Submission{}, err
	}
	if !cfg.AllowCertificateDetails {
		return model.Submission{}, ErrCertificatesClosed
	}
	if len(participants) == 0 {
		return model.Submission{}, invalid("participant details are required")
	}
	certs := make([]model.Certificate, 0, len(participants))
	for _, p := range participants {
		cert := model.Certificate{
			Name:    strings.TrimSpace(p.Name),
			College: strings.TrimSpace(p.College),
			Year:    strings.TrimSpace(p.Year),
			Dept:    strings.TrimSpace(p.Dept),
			Role:    strings.ToUpper(strings.TrimSpace(p.Role)),
		}
		if cert.Name == "" || cert.College == "" || cert.Year == "" || cert.Dept == "" || cert.Role == "" {
			return model.Submission{}, invalid("all participant fields are required")
		}
		certs = append(certs, cert)
	}
	sub, err := s.repo.MutateSubmission(ctx, teamID, false, func(sub *model.Submission) error {
		sub.Certificates = certs
		return nil
	})
	if errors.Is(err, model.ErrNotFound) {
		if _, teamErr := s.repo.GetTeam(ctx, teamID); teamErr != nil {
			return model.Submission{}, teamErr
		}
		return model.Submission{}, missing(StepSubmission)
	}
	if err != nil {
		return model.Submission{}, err
	}
	log.Info().Str("team_id", teamID).Int("count", len(certs)).Msg("participant certificates saved")
	return sub, nil
}

// SelectProblem records the team's chosen problem statement, which must be
// allotted to it.
func (s *Service) SelectProblem(ctx context.Context, teamID, problemID string) (model.Team, error) {
	if _, err := s.openConfig(ctx); err != nil {
		return model.Team{}, err
	}
	if strings.TrimSpace(problemID) == "" {
		return model.Team{}, invalid("question id is required")
	}
	team, err := s.repo.GetTeam(ctx, teamID)
	if err != nil {
		return model.Team{}, err
	}
	problem, err := s.repo.GetProblem(ctx, problemID)
	if err != nil {
		return model.Team{}, err
	}
	if !problem.AllottedToTeam(team) {
		return model.Team{}, ErrNotAllotted
	}
	return s.repo.UpdateTeam(ctx, teamID, func(team *model.Team) error {
		id := problem.ID
		team.SelectedProblemID = &id
		return nil
	})
}

type generateFunc func(ctx context.Context, req generator.Request) (generator.Result, error)

type generateOptions struct {
	// force skips the canRegenerate and stale-artifact checks.
	force bool
	// storeContent writes sub.Content with the artifact, creating the
	// submission when needed.
	storeContent bool
}

// generate calls the delegate without holding any submission lock and then
// commits only if the artifact state is still the one the caller checked.
// Nothing is written when the delegate fails.
func (s *Service) generate(ctx context.Context, team model.Team, sub model.Submission, opts generateOptions, call generateFunc) (model.Submission, error) {
	if !s.begin(team.ID) {
		return model.Submission{}, ErrGenerationInProgress
	}
	defer s.end(team.ID)

	prior := sub.ArtifactURL
	content := sub.Content
	result, err := call(ctx, generator.Request{
		TeamName:    team.Name,
		CollegeName: team.College,
		Content:     content,
	})
	if err != nil {
		log.Warn().Err(err).Str("team_id", team.ID).Msg("artifact generation failed")
		return model.Submission{}, err
	}

	now := s.clock.Now().UTC()
	updated, err := s.repo.MutateSubmission(ctx, team.ID, opts.storeContent, func(sub *model.Submission) error {
		if !opts.force {
			if !sameURL(sub.ArtifactURL, prior) {
				return ErrLocked
			}
			if err := checkRegenerate(*sub); err != nil {
				return err
			}
		}
		if opts.storeContent {
			sub.Content = append(json.RawMessage(nil), content...)
		}
		url := result.URL
		sub.ArtifactURL = &url
		sub.CanRegenerate = false
		if sub.Status != model.StatusLocked {
			sub.Status = model.StatusSubmitted
		}
		if sub.SubmittedAt == nil {
			sub.SubmittedAt = &now
		}
		return nil
	})
	if err != nil {
		return model.Submission{}, fmt.Errorf("store artifact: %w", err)
	}
	log.Info().Str("team_id", team.ID).Str("url", result.URL).Bool("forced", opts.force).Msg("artifact stored")
	return updated, nil
}

func (s *Service) begin(teamID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[teamID] {
		return false
	}
	s.inflight[teamID] = true
	return true
}

func (s *Service) end(teamID string) {
	s.mu.Lock()
	delete(s.inflight, teamID)
	s.mu.Unlock()
}

func checkRegenerate(sub model.Submission) error {
	if sub.Status == model.StatusLocked {
		return ErrLocked
	}
	if sub.ArtifactURL != nil && !sub.CanRegenerate {
		return ErrLocked
	}
	return nil
}

func sameURL(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
