package server

import (
	"net/http"
	"time"

	"hackathon-portal/internal/model"
	"hackathon-portal/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSysStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"uptimeSeconds": int(s.uptime().Seconds()),
		"timer":         s.timer.Snapshot(),
		"connections":   s.hub.Count(),
	})
}

func (s *Server) handleStatusView(c *gin.Context) {
	ctx := c.Request.Context()
	cfg, err := s.currentConfig(ctx)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	teams, err := s.store.ListTeams(ctx)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	snap := s.timer.Snapshot()
	view := web.StatusView{
		FormattedTime:   snap.FormattedTime,
		TimeRemaining:   snap.TimeRemaining,
		Paused:          snap.Paused,
		EventEnded:      cfg.EventEnded,
		DurationMinutes: cfg.DurationMinutes,
		TotalTeams:      len(teams),
		Connections:     s.hub.Count(),
		Uptime:          s.uptime().String(),
	}
	for _, overview := range teams {
		if overview.Submission == nil {
			continue
		}
		switch overview.Submission.Status {
		case model.StatusSubmitted:
			view.Submitted++
		case model.StatusLocked:
			view.Locked++
		}
	}
	templ.Handler(web.Status(view)).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) uptime() time.Duration {
	return s.clock.Since(s.startedAt).Truncate(time.Second)
}
