package server

import (
	"errors"
	"net/http"

	"hackathon-portal/internal/model"

	"github.com/gin-gonic/gin"
)

var scoreMessages = bindMessages{
	"SubmissionID": {"required": "submissionId is required", "notblank": "submissionId is required"},
	"Innovation":   {"gte": "scores range from 0 to 10", "lte": "scores range from 0 to 10"},
	"Feasibility":  {"gte": "scores range from 0 to 10", "lte": "scores range from 0 to 10"},
	"TechStack":    {"gte": "scores range from 0 to 10", "lte": "scores range from 0 to 10"},
	"Presentation": {"gte": "scores range from 0 to 10", "lte": "scores range from 0 to 10"},
	"Impact":       {"gte": "scores range from 0 to 10", "lte": "scores range from 0 to 10"},
}

func (s *Server) handleReviewerDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	reviewerID := principal(c).ID
	teams, err := s.store.ListTeams(ctx)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	list := make([]reviewerTeam, 0, len(teams))
	for _, overview := range teams {
		item := reviewerTeam{Team: overview.Team, Status: model.StatusNotStarted}
		if sub := overview.Submission; sub != nil {
			item.SubmissionID = sub.ID
			item.Status = sub.Status
			item.ArtifactURL = sub.ArtifactURL
			item.PrototypeURL = sub.PrototypeURL
			scores, err := s.store.ListScores(ctx, sub.ID)
			if err != nil {
				writeWorkflowError(c, err)
				return
			}
			for i := range scores {
				if scores[i].ReviewerID == reviewerID {
					item.MyScore = &scores[i]
					break
				}
			}
		}
		list = append(list, item)
	}
	c.JSON(http.StatusOK, gin.H{"teams": list})
}

func (s *Server) handleReviewerTeam(c *gin.Context) {
	var uri teamURI
	if !bindURI(c, &uri) {
		return
	}
	ctx := c.Request.Context()
	team, err := s.store.GetTeam(ctx, uri.ID)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	resp := gin.H{"team": team, "submission": nil, "scores": []model.Score{}, "selectedProblem": nil}
	if team.SelectedProblemID != nil {
		problem, err := s.store.GetProblem(ctx, *team.SelectedProblemID)
		if err == nil {
			resp["selectedProblem"] = problem
		} else if !errors.Is(err, model.ErrNotFound) {
			writeWorkflowError(c, err)
			return
		}
	}
	sub, err := s.store.GetSubmission(ctx, team.ID)
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusOK, resp)
		return
	}
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	scores, err := s.store.ListScores(ctx, sub.ID)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	resp["submission"] = sub
	resp["scores"] = scores
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleScore(c *gin.Context) {
	var req scoreRequest
	if !bindJSON(c, &req, scoreMessages, "invalid score") {
		return
	}
	p := principal(c)
	score, err := s.store.UpsertScore(c.Request.Context(), model.Score{
		SubmissionID: req.SubmissionID,
		ReviewerID:   p.ID,
		Innovation:   req.Innovation,
		Feasibility:  req.Feasibility,
		TechStack:    req.TechStack,
		Presentation: req.Presentation,
		Impact:       req.Impact,
		Total:        req.Innovation + req.Feasibility + req.TechStack + req.Presentation + req.Impact,
		Comments:     req.Comments,
		UpdatedAt:    s.clock.Now().UTC(),
	})
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	s.recordEvent(c.Request.Context(), auditScoreSaved, "", p.ID, EventPayload{ReviewerID: p.ID, Total: score.Total})
	c.JSON(http.StatusOK, gin.H{"success": true, "score": score})
}
