package workflow

import (
	"context"
	"errors"

	"hackathon-portal/internal/model"
	"hackathon-portal/internal/timer"

	"github.com/rs/zerolog/log"
)

// Admin overrides never consult the halt flag.

// UnlockTeam lets a team redo its work: status back to IN_PROGRESS, artifact
// cleared, regeneration allowed. Generated files are left where they are.
func (s *Service) UnlockTeam(ctx context.Context, teamID string) (model.Submission, error) {
	sub, err := s.repo.MutateSubmission(ctx, teamID, false, func(sub *model.Submission) error {
		sub.Status = model.StatusInProgress
		sub.ArtifactURL = nil
		sub.CanRegenerate = true
		return nil
	})
	if err != nil {
		return model.Submission{}, err
	}
	log.Info().Str("team_id", teamID).Msg("team unlocked")
	return sub, nil
}

// ResetTeamSelection clears the chosen problem and rewinds the submission,
// dropping artifact, prototype and certificate data.
func (s *Service) ResetTeamSelection(ctx context.Context, teamID string) (model.Team, error) {
	team, err := s.repo.UpdateTeam(ctx, teamID, func(team *model.Team) error {
		team.SelectedProblemID = nil
		return nil
	})
	if err != nil {
		return model.Team{}, err
	}
	_, err = s.repo.MutateSubmission(ctx, teamID, false, func(sub *model.Submission) error {
		sub.Status = model.StatusInProgress
		sub.CanRegenerate = true
		sub.ArtifactURL = nil
		sub.PrototypeURL = nil
		sub.CertificateName = nil
		sub.CertificateCollege = nil
		sub.CertificateYear = nil
		sub.SubmittedAt = nil
		sub.Certificates = nil
		return nil
	})
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.Team{}, err
	}
	log.Info().Str("team_id", teamID).Msg("team selection reset")
	return team, nil
}

// ForceRegenerate re-runs generation ignoring canRegenerate. Only content is
// required.
func (s *Service) ForceRegenerate(ctx context.Context, teamID string) (model.Submission, error) {
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
	return s.generate(ctx, team, sub, generateOptions{force: true}, s.gen.Generate)
}

func (s *Service) SetCanRegenerate(ctx context.Context, teamID string, allowed bool) (model.Submission, error) {
	return s.repo.MutateSubmission(ctx, teamID, false, func(sub *model.Submission) error {
		sub.CanRegenerate = allowed
		return nil
	})
}

// DeleteTeam removes the team with its submission, certificates and problem
// allotments.
func (s *Service) DeleteTeam(ctx context.Context, teamID string) error {
	if err := s.repo.DeleteTeamCascade(ctx, teamID); err != nil {
		return err
	}
	log.Info().Str("team_id", teamID).Msg("team deleted")
	return nil
}

// ToggleHalt flips the global pause flag. The flip happens under the row
// lock so concurrent toggles never collapse into one.
func (s *Service) ToggleHalt(ctx context.Context) (model.Config, timer.Snapshot, error) {
	return s.updateHalt(ctx, func(current bool) bool { return !current })
}

// SetHalt persists the pause flag and mirrors it onto the countdown, which
// broadcasts once. A failed write is logged and the countdown still follows.
func (s *Service) SetHalt(ctx context.Context, paused bool) (model.Config, timer.Snapshot, error) {
	return s.updateHalt(ctx, func(bool) bool { return paused })
}

func (s *Service) updateHalt(ctx context.Context, next func(current bool) bool) (model.Config, timer.Snapshot, error) {
	cfg, err := s.config(ctx)
	if err != nil {
		return model.Config{}, timer.Snapshot{}, err
	}
	var (
		paused  bool
		snap    timer.Snapshot
		applied bool
	)
	updated, err := s.repo.UpdateConfig(ctx, func(row *model.Config) error {
		row.IsPaused = next(row.IsPaused)
		paused = row.IsPaused
		// The countdown follows the row in commit order.
		snap = s.timer.SetPaused(paused)
		applied = true
		return nil
	})
	if err != nil {
		if !applied {
			paused = next(cfg.IsPaused)
			snap = s.timer.SetPaused(paused)
		}
		log.Error().Err(err).Bool("paused", paused).Msg("persist halt flag")
		updated = cfg
		updated.IsPaused = paused
	}
	log.Info().Bool("paused", paused).Int("time_remaining", snap.TimeRemaining).Msg("halt flag changed")
	return updated, snap, nil
}

// ResetTimer rewinds the countdown to the full duration, paused, and reopens
// the submission window. durationMinutes <= 0 keeps the configured duration.
func (s *Service) ResetTimer(ctx context.Context, durationMinutes int) (model.Config, timer.Snapshot, error) {
	cfg, err := s.config(ctx)
	if err != nil {
		return model.Config{}, timer.Snapshot{}, err
	}
	if durationMinutes <= 0 {
		durationMinutes = cfg.DurationMinutes
	}
	var (
		snap    timer.Snapshot
		applied bool
	)
	updated, err := s.repo.UpdateConfig(ctx, func(row *model.Config) error {
		row.DurationMinutes = durationMinutes
		row.IsPaused = true
		row.EventEnded = false
		// Rewound under the row lock so MarkEnded sees either the old zero
		// or the new duration, never a reopened row with an ended countdown.
		snap = s.timer.ResetToFull(durationMinutes)
		applied = true
		return nil
	})
	if err != nil {
		if !applied {
			snap = s.timer.ResetToFull(durationMinutes)
		}
		log.Error().Err(err).Int("duration_minutes", durationMinutes).Msg("persist timer reset")
		updated = cfg
		updated.DurationMinutes = durationMinutes
		updated.IsPaused = true
		updated.EventEnded = false
	}
	log.Info().Int("duration_minutes", durationMinutes).Msg("timer reset")
	return updated, snap, nil
}

// SetDuration stores the configured duration without touching the countdown.
func (s *Service) SetDuration(ctx context.Context, durationMinutes int) (model.Config, error) {
	if durationMinutes <= 0 {
		return model.Config{}, invalid("durationMinutes must be positive")
	}
	if _, err := s.config(ctx); err != nil {
		return model.Config{}, err
	}
	return s.repo.UpdateConfig(ctx, func(cfg *model.Config) error {
		cfg.DurationMinutes = durationMinutes
		return nil
	})
}

func (s *Service) ToggleCertificateCollection(ctx context.Context) (model.Config, error) {
	if _, err := s.config(ctx); err != nil {
		return model.Config{}, err
	}
	cfg, err := s.repo.UpdateConfig(ctx, func(cfg *model.Config) error {
		cfg.AllowCertificateDetails = !cfg.AllowCertificateDetails
		return nil
	})
	if err != nil {
		return model.Config{}, err
	}
	log.Info().Bool("allow_certificate_details", cfg.AllowCertificateDetails).Msg("certificate collection toggled")
	return cfg, nil
}

// MarkEnded records that the countdown reached zero. It leaves the row alone
// when the countdown has been rewound since, so a reset that lands first wins.
func (s *Service) MarkEnded(ctx context.Context) error {
	skipped := false
	_, err := s.repo.UpdateConfig(ctx, func(cfg *model.Config) error {
		if s.timer.Snapshot().TimeRemaining > 0 {
			skipped = true
			return nil
		}
		cfg.EventEnded = true
		cfg.IsPaused = true
		return nil
	})
	if err == nil && skipped {
		log.Info().Msg("countdown rewound before end was recorded")
	}
	return err
}

// config loads the configuration row, seeding defaults when absent so admin
// overrides work on a fresh database.
func (s *Service) config(ctx context.Context) (model.Config, error) {
	return s.repo.EnsureConfig(ctx, model.Config{DurationMinutes: s.duration, IsPaused: true})
}
