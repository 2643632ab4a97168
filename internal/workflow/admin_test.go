package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hackathon-portal/internal/model"
	"hackathon-portal/internal/store"
	"hackathon-portal/internal/timer"
)

func TestUnlockTeamReopensSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.generated(t)
	f.svc.SubmitPrototype(ctx, f.team.ID, "https://github.com/alpha/solar")
	f.svc.SubmitCertificateInfo(ctx, f.team.ID, "Asha", "State College", "3")

	sub, err := f.svc.UnlockTeam(ctx, f.team.ID)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if sub.Status != model.StatusInProgress || sub.ArtifactURL != nil || !sub.CanRegenerate {
		t.Fatalf("unexpected submission after unlock %+v", sub)
	}
	if _, err := f.svc.SaveDraft(ctx, f.team.ID, content("again")); err != nil {
		t.Fatalf("expected draft allowed after unlock, got %v", err)
	}
	if _, err := f.svc.UnlockTeam(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAdminOverridesBypassHalt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.generated(t)
	if _, _, err := f.svc.SetHalt(ctx, true); err != nil {
		t.Fatalf("halt: %v", err)
	}
	if _, err := f.svc.UnlockTeam(ctx, f.team.ID); err != nil {
		t.Fatalf("expected unlock while halted, got %v", err)
	}
	if _, err := f.svc.ForceRegenerate(ctx, f.team.ID); err != nil {
		t.Fatalf("expected force regenerate while halted, got %v", err)
	}
}

func TestResetTeamSelectionClearsEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	name := f.team.Name
	problem, _ := f.repo.CreateProblem(ctx, model.ProblemStatement{QuestionNo: "1", Title: "Grid", AllottedTo: &name})
	if _, err := f.svc.SelectProblem(ctx, f.team.ID, problem.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	f.generated(t)
	f.svc.SubmitPrototype(ctx, f.team.ID, "https://github.com/alpha/solar")
	f.svc.ToggleCertificateCollection(ctx)
	f.svc.SubmitParticipantCertificates(ctx, f.team.ID, []Participant{{Name: "A", College: "C", Year: "1", Dept: "D", Role: "member"}})

	team, err := f.svc.ResetTeamSelection(ctx, f.team.ID)
	if err != nil {
		t.Fatalf("reset selection: %v", err)
	}
	if team.SelectedProblemID != nil {
		t.Fatalf("expected selection cleared")
	}
	sub, _ := f.repo.GetSubmission(ctx, f.team.ID)
	if sub.Status != model.StatusInProgress || !sub.CanRegenerate {
		t.Fatalf("unexpected status %+v", sub)
	}
	if sub.ArtifactURL != nil || sub.PrototypeURL != nil || len(sub.Certificates) != 0 {
		t.Fatalf("expected artifact, prototype and certificates cleared, got %+v", sub)
	}
}

func TestResetTeamSelectionWithoutSubmission(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.ResetTeamSelection(context.Background(), f.team.ID); err != nil {
		t.Fatalf("expected reset without submission to succeed, got %v", err)
	}
}

func TestForceRegenerateIgnoresFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.ForceRegenerate(ctx, f.team.ID); !errors.Is(err, ErrPrerequisiteMissing) {
		t.Fatalf("expected prerequisite missing, got %v", err)
	}
	f.generated(t)
	f.gen.url = "https://files.example.com/outputs/forced.pptx"
	sub, err := f.svc.ForceRegenerate(ctx, f.team.ID)
	if err != nil {
		t.Fatalf("force regenerate: %v", err)
	}
	if *sub.ArtifactURL != f.gen.url || sub.CanRegenerate {
		t.Fatalf("unexpected submission %+v", sub)
	}
}

func TestToggleHaltMirrorsCountdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg, snap, err := f.svc.ToggleHalt(ctx)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !cfg.IsPaused || !snap.Paused {
		t.Fatalf("expected halted, got %+v %+v", cfg, snap)
	}
	cfg, snap, _ = f.svc.ToggleHalt(ctx)
	if cfg.IsPaused || snap.Paused {
		t.Fatalf("expected resumed, got %+v %+v", cfg, snap)
	}
	stored, _ := f.repo.GetConfig(ctx)
	if stored.IsPaused {
		t.Fatalf("expected persisted resume")
	}
}

func TestResetTimerPersistsAndPauses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.engine.SetTimeRemaining(0)
	if err := f.svc.MarkEnded(ctx); err != nil {
		t.Fatalf("mark ended: %v", err)
	}
	if ended, _ := f.repo.GetConfig(ctx); !ended.EventEnded || !ended.IsPaused {
		t.Fatalf("expected ended and paused, got %+v", ended)
	}
	cfg, snap, err := f.svc.ResetTimer(ctx, 90)
	if err != nil {
		t.Fatalf("reset timer: %v", err)
	}
	if cfg.DurationMinutes != 90 || !cfg.IsPaused || cfg.EventEnded {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if snap.TimeRemaining != 5400 || !snap.Paused {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	_, snap, _ = f.svc.ResetTimer(ctx, 0)
	if snap.TimeRemaining != 5400 {
		t.Fatalf("expected configured duration reused, got %d", snap.TimeRemaining)
	}
}

func TestToggleHaltConcurrentFlipsAllCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const toggles = 20
	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.svc.ToggleHalt(ctx)
		}()
	}
	wg.Wait()
	cfg, _ := f.repo.GetConfig(ctx)
	if cfg.IsPaused {
		t.Fatalf("expected an even number of flips to leave the system running")
	}
	if f.engine.Snapshot().Paused != cfg.IsPaused {
		t.Fatalf("expected countdown paused=%v, got %+v", cfg.IsPaused, f.engine.Snapshot())
	}
}

func TestMarkEndedSkippedAfterReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.engine.SetTimeRemaining(0)
	if _, _, err := f.svc.ResetTimer(ctx, 30); err != nil {
		t.Fatalf("reset timer: %v", err)
	}
	if err := f.svc.MarkEnded(ctx); err != nil {
		t.Fatalf("mark ended: %v", err)
	}
	cfg, _ := f.repo.GetConfig(ctx)
	if cfg.EventEnded {
		t.Fatalf("expected reset to win over a late end, got %+v", cfg)
	}
	if snap := f.engine.Snapshot(); snap.TimeRemaining != 1800 {
		t.Fatalf("expected 1800 seconds, got %d", snap.TimeRemaining)
	}
}

func TestAdminOverridesSeedMissingConfig(t *testing.T) {
	repo := store.NewMemory()
	svc := NewService(Options{Repo: repo, Generator: &fakeGenerator{}, Timer: timer.New(nil, nil), DefaultDurationMinutes: 120})
	ctx := context.Background()
	cfg, err := svc.SetDuration(ctx, 30)
	if err != nil {
		t.Fatalf("set duration: %v", err)
	}
	if cfg.DurationMinutes != 30 || !cfg.IsPaused {
		t.Fatalf("expected seeded paused config with 30 minutes, got %+v", cfg)
	}
	if _, err := svc.SetDuration(ctx, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestDeleteTeamLeavesNoReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	name, id := f.team.Name, f.team.ID
	byName, _ := f.repo.CreateProblem(ctx, model.ProblemStatement{QuestionNo: "1", AllottedTo: &name})
	byID, _ := f.repo.CreateProblem(ctx, model.ProblemStatement{QuestionNo: "2", AllottedTo: &id})
	f.generated(t)
	f.svc.ToggleCertificateCollection(ctx)
	f.svc.SubmitParticipantCertificates(ctx, f.team.ID, []Participant{{Name: "A", College: "C", Year: "1", Dept: "D", Role: "member"}})

	if err := f.svc.DeleteTeam(ctx, f.team.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, pid := range []string{byName.ID, byID.ID} {
		p, _ := f.repo.GetProblem(ctx, pid)
		if p.AllottedTo != nil {
			t.Fatalf("expected no reference to deleted team, got %q", *p.AllottedTo)
		}
	}
	if _, err := f.repo.GetSubmission(ctx, f.team.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected submission removed, got %v", err)
	}
}
