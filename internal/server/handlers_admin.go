package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"hackathon-portal/internal/auth"
	"hackathon-portal/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var adminMessages = bindMessages{
	"TeamName": {
		"required": "teamName is required",
		"notblank": "teamName is required",
		"max":      "teamName is too long",
	},
	"CollegeName": {
		"required": "collegeName is required",
		"notblank": "collegeName is required",
	},
	"Allowed":         {"required": "allowed is required"},
	"DurationMinutes": {"required": "durationMinutes must be positive", "gt": "durationMinutes must be positive"},
	"QuestionNo":      {"required": "questionNo is required", "notblank": "questionNo is required"},
	"Title":           {"required": "title is required", "notblank": "title is required"},
	"Description":     {"required": "description is required", "notblank": "description is required"},
	"Email":           {"required": "email is required", "email": "email is invalid"},
	"Password":        {"required": "password is required", "min": "password must be at least 8 characters"},
	"Name":            {"required": "name is required", "notblank": "name is required"},
}

func (s *Server) handleAdminDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	teams, err := s.store.ListTeams(ctx)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	counts := map[model.Status]int{}
	for _, overview := range teams {
		status := model.StatusNotStarted
		if overview.Submission != nil {
			status = overview.Submission.Status
		}
		counts[status]++
	}
	cfg, err := s.currentConfig(ctx)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totalTeams": len(teams),
		"notStarted": counts[model.StatusNotStarted],
		"inProgress": counts[model.StatusInProgress],
		"submitted":  counts[model.StatusSubmitted],
		"locked":     counts[model.StatusLocked],
		"config":     cfg,
		"timer":      s.timer.Snapshot(),
	})
}

func (s *Server) handleAdminCandidates(c *gin.Context) {
	teams, err := s.store.ListTeams(c.Request.Context())
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	list := make([]candidate, 0, len(teams))
	for _, overview := range teams {
		item := candidate{
			Team:         overview.Team,
			Status:       model.StatusNotStarted,
			Certificates: []model.Certificate{},
		}
		if sub := overview.Submission; sub != nil {
			updated := sub.UpdatedAt
			item.Status = sub.Status
			item.Progress = sub.Progress()
			item.LastSaved = &updated
			item.ArtifactURL = sub.ArtifactURL
			item.PrototypeURL = sub.PrototypeURL
			if sub.Certificates != nil {
				item.Certificates = sub.Certificates
			}
		}
		list = append(list, item)
	}
	c.JSON(http.StatusOK, gin.H{"candidates": list})
}

func (s *Server) handleCreateTeam(c *gin.Context) {
	var req createTeamRequest
	if !bindJSON(c, &req, adminMessages, "invalid team") {
		return
	}
	team, err := s.store.CreateTeam(c.Request.Context(), model.Team{
		Name:    normalizeText(req.TeamName),
		College: normalizeText(req.CollegeName),
		Member1: strings.TrimSpace(req.Member1),
		Member2: strings.TrimSpace(req.Member2),
		Dept:    strings.TrimSpace(req.Dept),
		Year:    req.Year,
	})
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	log.Info().Str("team_id", team.ID).Str("team_name", team.Name).Msg("team created")
	s.recordEvent(c.Request.Context(), auditTeamCreated, team.ID, principal(c).ID, EventPayload{TeamName: team.Name})
	c.JSON(http.StatusCreated, gin.H{"success": true, "team": team})
}

func (s *Server) handleDeleteTeam(c *gin.Context) {
	var uri teamURI
	if !bindURI(c, &uri) {
		return
	}
	if err := s.workflow.DeleteTeam(c.Request.Context(), uri.ID); err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditTeamDeleted, uri.ID, principal(c).ID, EventPayload{})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleUnlockTeam(c *gin.Context) {
	var uri teamURI
	if !bindURI(c, &uri) {
		return
	}
	sub, err := s.workflow.UnlockTeam(c.Request.Context(), uri.ID)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditTeamUnlocked, uri.ID, principal(c).ID, EventPayload{Status: string(sub.Status)})
	c.JSON(http.StatusOK, gin.H{"success": true, "submission": sub})
}

func (s *Server) handleResetSelection(c *gin.Context) {
	var uri teamURI
	if !bindURI(c, &uri) {
		return
	}
	team, err := s.workflow.ResetTeamSelection(c.Request.Context(), uri.ID)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditSelectionReset, uri.ID, principal(c).ID, EventPayload{TeamName: team.Name})
	c.JSON(http.StatusOK, gin.H{"success": true, "team": team})
}

func (s *Server) handleForceRegenerate(c *gin.Context) {
	var uri teamURI
	if !bindURI(c, &uri) {
		return
	}
	sub, err := s.workflow.ForceRegenerate(c.Request.Context(), uri.ID)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditForceRegenerate, uri.ID, principal(c).ID, EventPayload{
		Status:      string(sub.Status),
		ArtifactURL: deref(sub.ArtifactURL),
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "pptUrl": sub.ArtifactURL, "submission": sub})
}

func (s *Server) handleRegeneratePermission(c *gin.Context) {
	var uri teamURI
	if !bindURI(c, &uri) {
		return
	}
	var req regeneratePermissionRequest
	if !bindJSON(c, &req, adminMessages, "invalid permission") {
		return
	}
	sub, err := s.workflow.SetCanRegenerate(c.Request.Context(), uri.ID, *req.Allowed)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditRegeneratePerm, uri.ID, principal(c).ID, EventPayload{Allowed: boolPtr(sub.CanRegenerate)})
	c.JSON(http.StatusOK, gin.H{"success": true, "submission": sub})
}

func (s *Server) handleTestConfig(c *gin.Context) {
	var req testConfigRequest
	if !bindJSON(c, &req, adminMessages, "invalid duration") {
		return
	}
	cfg, err := s.workflow.SetDuration(c.Request.Context(), req.DurationMinutes)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditDurationSet, "", principal(c).ID, EventPayload{DurationMinutes: cfg.DurationMinutes})
	c.JSON(http.StatusOK, gin.H{"success": true, "config": cfg})
}

func (s *Server) handleToggleHalt(c *gin.Context) {
	cfg, snap, err := s.workflow.ToggleHalt(c.Request.Context())
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditHaltChanged, "", principal(c).ID, EventPayload{Paused: boolPtr(cfg.IsPaused), Source: "http"})
	c.JSON(http.StatusOK, gin.H{"success": true, "isPaused": cfg.IsPaused, "timer": snap})
}

func (s *Server) handleTimerStart(c *gin.Context) {
	s.setHalt(c, false)
}

func (s *Server) handleTimerPause(c *gin.Context) {
	s.setHalt(c, true)
}

func (s *Server) setHalt(c *gin.Context, paused bool) {
	cfg, snap, err := s.workflow.SetHalt(c.Request.Context(), paused)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditHaltChanged, "", principal(c).ID, EventPayload{Paused: boolPtr(paused), Source: "http"})
	c.JSON(http.StatusOK, gin.H{"success": true, "isPaused": cfg.IsPaused, "timer": snap})
}

func (s *Server) handleTimerReset(c *gin.Context) {
	var req timerResetRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, adminMessages, "invalid duration") {
		return
	}
	cfg, snap, err := s.workflow.ResetTimer(c.Request.Context(), req.DurationMinutes)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditTimerReset, "", principal(c).ID, EventPayload{
		DurationMinutes: cfg.DurationMinutes,
		TimeRemaining:   snap.TimeRemaining,
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "config": cfg, "timer": snap})
}

func (s *Server) handleToggleCertificates(c *gin.Context) {
	cfg, err := s.workflow.ToggleCertificateCollection(c.Request.Context())
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.hub.Broadcast(eventRegistrationUpdate, gin.H{"allowRegistration": cfg.AllowCertificateDetails})
	s.recordEvent(c.Request.Context(), auditCertificatesToggled, "", principal(c).ID, EventPayload{Allowed: boolPtr(cfg.AllowCertificateDetails)})
	c.JSON(http.StatusOK, gin.H{"success": true, "allowCertificateDetails": cfg.AllowCertificateDetails})
}

func (s *Server) handleListProblems(c *gin.Context) {
	problems, err := s.store.ListProblems(c.Request.Context())
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"problems": problems})
}

func (s *Server) handleCreateProblem(c *gin.Context) {
	var req problemRequest
	if !bindJSON(c, &req, adminMessages, "invalid problem statement") {
		return
	}
	problem := model.ProblemStatement{
		QuestionNo:   normalizeText(req.QuestionNo),
		SubDivisions: strings.TrimSpace(req.SubDivisions),
		Title:        normalizeText(req.Title),
		Description:  strings.TrimSpace(req.Description),
	}
	if allotted := normalizeText(req.AllottedTo); allotted != "" {
		problem.AllottedTo = &allotted
	}
	problem, err := s.store.CreateProblem(c.Request.Context(), problem)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditProblemCreated, "", principal(c).ID, EventPayload{ProblemID: problem.ID, AllottedTo: deref(problem.AllottedTo)})
	c.JSON(http.StatusCreated, gin.H{"success": true, "problem": problem})
}

func (s *Server) handleAllotProblem(c *gin.Context) {
	var uri teamURI
	if !bindURI(c, &uri) {
		return
	}
	var req allotRequest
	if !bindJSON(c, &req, adminMessages, "invalid allotment") {
		return
	}
	var allottedTo *string
	if req.AllottedTo != nil {
		if value := normalizeText(*req.AllottedTo); value != "" {
			allottedTo = &value
		}
	}
	problem, err := s.store.AllotProblem(c.Request.Context(), uri.ID, allottedTo)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditProblemAllotted, "", principal(c).ID, EventPayload{ProblemID: problem.ID, AllottedTo: deref(problem.AllottedTo)})
	c.JSON(http.StatusOK, gin.H{"success": true, "problem": problem})
}

func (s *Server) handleDeleteProblem(c *gin.Context) {
	var uri teamURI
	if !bindURI(c, &uri) {
		return
	}
	if err := s.store.DeleteProblem(c.Request.Context(), uri.ID); err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditProblemDeleted, "", principal(c).ID, EventPayload{ProblemID: uri.ID})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleCreateReviewer(c *gin.Context) {
	var req reviewerRequest
	if !bindJSON(c, &req, adminMessages, "invalid reviewer") {
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	reviewer, err := s.store.CreateReviewer(c.Request.Context(), model.Account{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         normalizeText(req.Name),
		Domain:       strings.TrimSpace(req.Domain),
		PasswordHash: hash,
	})
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditReviewerCreated, "", principal(c).ID, EventPayload{ReviewerID: reviewer.ID})
	c.JSON(http.StatusCreated, gin.H{"success": true, "reviewer": reviewer})
}

// currentConfig reads the configuration row, reporting the paused defaults
// when none has been written yet.
func (s *Server) currentConfig(ctx context.Context) (model.Config, error) {
	cfg, err := s.store.GetConfig(ctx)
	if errors.Is(err, model.ErrNotFound) {
		return model.Config{DurationMinutes: s.cfg.DefaultDurationMinutes, IsPaused: true}, nil
	}
	return cfg, err
}
