package server

import (
	"errors"
	"net/http"

	"hackathon-portal/internal/model"
	"hackathon-portal/internal/store"

	"github.com/gin-gonic/gin"
)

var teamMessages = bindMessages{
	"Content": {"required": "content is required"},
	"PrototypeURL": {
		"required": "prototypeUrl is required",
		"notblank": "prototypeUrl is required",
	},
	"Name":         {"required": "name is required", "notblank": "name is required"},
	"College":      {"required": "college is required", "notblank": "college is required"},
	"Year":         {"required": "year is required", "notblank": "year is required"},
	"Participants": {"required": "participants are required", "min": "at least one participant is required"},
	"ProblemID":    {"required": "questionId is required", "notblank": "questionId is required"},
}

func (s *Server) handleTeamProfile(c *gin.Context) {
	ctx := c.Request.Context()
	team, err := s.store.GetTeam(ctx, principal(c).ID)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	resp := profileResponse{Team: team, Timer: s.timer.Snapshot()}
	sub, err := s.store.GetSubmission(ctx, team.ID)
	switch {
	case err == nil:
		resp.Submission = &sub
	case !errors.Is(err, model.ErrNotFound):
		writeWorkflowError(c, err)
		return
	}
	problems, err := s.store.ListProblems(ctx)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	resp.Problems = store.ProblemsForTeam(problems, team)
	if team.SelectedProblemID != nil {
		for i := range problems {
			if problems[i].ID == *team.SelectedProblemID {
				resp.SelectedProblem = &problems[i]
				break
			}
		}
	}
	if resp.Config, err = s.currentConfig(ctx); err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleTeamSubmission(c *gin.Context) {
	sub, err := s.store.GetSubmission(c.Request.Context(), principal(c).ID)
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"submission": nil})
		return
	}
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

func (s *Server) handleTimer(c *gin.Context) {
	c.JSON(http.StatusOK, s.timer.Snapshot())
}

func (s *Server) handleSaveDraft(c *gin.Context) {
	var req saveDraftRequest
	if !bindJSON(c, &req, teamMessages, "invalid draft") {
		return
	}
	p := principal(c)
	sub, err := s.workflow.SaveDraft(c.Request.Context(), p.ID, req.Content)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditDraftSaved, p.ID, p.ID, EventPayload{TeamName: p.Name, Status: string(sub.Status)})
	c.JSON(http.StatusOK, gin.H{"success": true, "submission": sub})
}

func (s *Server) handleGenerateArtifact(c *gin.Context) {
	p := principal(c)
	sub, err := s.workflow.GenerateArtifact(c.Request.Context(), p.ID)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditArtifactGenerated, p.ID, p.ID, EventPayload{
		TeamName:    p.Name,
		Status:      string(sub.Status),
		ArtifactURL: deref(sub.ArtifactURL),
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "pptUrl": sub.ArtifactURL, "submission": sub})
}

func (s *Server) handleGeneratePitchDeck(c *gin.Context) {
	var req pitchDeckRequest
	if !bindJSON(c, &req, teamMessages, "invalid project data") {
		return
	}
	p := principal(c)
	sub, err := s.workflow.GenerateExpertPitch(c.Request.Context(), p.ID, req.Content)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditExpertPitch, p.ID, p.ID, EventPayload{
		TeamName:    p.Name,
		Status:      string(sub.Status),
		ArtifactURL: deref(sub.ArtifactURL),
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "pptUrl": sub.ArtifactURL, "submission": sub})
}

func (s *Server) handleSubmitPrototype(c *gin.Context) {
	var req prototypeRequest
	if !bindJSON(c, &req, teamMessages, "invalid prototype") {
		return
	}
	p := principal(c)
	sub, err := s.workflow.SubmitPrototype(c.Request.Context(), p.ID, req.PrototypeURL)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditPrototypeSubmitted, p.ID, p.ID, EventPayload{
		TeamName:     p.Name,
		PrototypeURL: deref(sub.PrototypeURL),
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "submission": sub})
}

func (s *Server) handleSubmitCertificate(c *gin.Context) {
	var req certificateRequest
	if !bindJSON(c, &req, teamMessages, "invalid certificate details") {
		return
	}
	p := principal(c)
	sub, err := s.workflow.SubmitCertificateInfo(c.Request.Context(), p.ID, req.Name, req.College, req.Year)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditCertificateLocked, p.ID, p.ID, EventPayload{TeamName: p.Name, Status: string(sub.Status)})
	c.JSON(http.StatusOK, gin.H{"success": true, "submission": sub})
}

func (s *Server) handleCertificateDetails(c *gin.Context) {
	var req participantsRequest
	if !bindJSON(c, &req, teamMessages, "invalid participants") {
		return
	}
	p := principal(c)
	sub, err := s.workflow.SubmitParticipantCertificates(c.Request.Context(), p.ID, req.Participants)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditParticipantsUpdated, p.ID, p.ID, EventPayload{TeamName: p.Name, Count: len(sub.Certificates)})
	c.JSON(http.StatusOK, gin.H{"success": true, "certificates": sub.Certificates})
}

func (s *Server) handleSelectQuestion(c *gin.Context) {
	var req selectQuestionRequest
	if !bindJSON(c, &req, teamMessages, "invalid selection") {
		return
	}
	p := principal(c)
	team, err := s.workflow.SelectProblem(c.Request.Context(), p.ID, req.ProblemID)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditProblemSelected, p.ID, p.ID, EventPayload{TeamName: p.Name, ProblemID: req.ProblemID})
	c.JSON(http.StatusOK, gin.H{"success": true, "team": team})
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
