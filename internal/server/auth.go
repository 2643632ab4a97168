package server

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"hackathon-portal/internal/auth"
	"hackathon-portal/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var loginMessages = bindMessages{
	"Role": {
		"required": "role is required",
		"oneof":    "role must be team, admin or reviewer",
	},
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, loginMessages, "invalid login request") {
		return
	}
	role := auth.Role(strings.ToUpper(req.Role))
	identifier := strings.ToLower(normalizeText(req.TeamName))
	if role != auth.RoleTeam {
		identifier = strings.ToLower(strings.TrimSpace(req.Email))
	}
	key := clientIP(c.Request) + "|" + string(role) + "|" + identifier
	ctx := c.Request.Context()

	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("rate limiter unavailable")
		allowed = true
	}
	if !allowed {
		writeError(c, http.StatusTooManyRequests, "rate_limited", "Too many login attempts. Try again later.")
		return
	}

	var (
		p    auth.Principal
		resp loginResponse
	)
	switch role {
	case auth.RoleTeam:
		team, err := s.authenticateTeam(c, req.TeamName, req.CollegeName)
		if err != nil {
			s.writeLoginError(c, err)
			return
		}
		p = auth.Principal{ID: team.ID, Role: role, Name: team.Name}
		resp.Team = &team
	default:
		account, err := s.authenticateAccount(c, role, req.Email, req.Password)
		if err != nil {
			s.writeLoginError(c, err)
			return
		}
		p = auth.Principal{ID: account.ID, Role: role, Name: account.Name, Email: account.Email}
		resp.User = &account
	}

	token, err := s.issuer.Issue(p)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	if err := s.limiter.Reset(ctx, key); err != nil {
		log.Warn().Err(err).Msg("reset login attempts")
	}
	log.Info().Str("role", string(role)).Str("principal_id", p.ID).Msg("login")
	resp.Token = token
	resp.Role = string(role)
	resp.ID = p.ID
	resp.Name = p.Name
	c.JSON(http.StatusOK, resp)
}

func (s *Server) authenticateTeam(c *gin.Context, teamName, collegeName string) (model.Team, error) {
	name := normalizeText(teamName)
	college := normalizeText(collegeName)
	if name == "" || college == "" {
		return model.Team{}, auth.ErrInvalidCredentials
	}
	team, err := s.store.FindTeamByName(c.Request.Context(), name)
	if errors.Is(err, model.ErrNotFound) {
		return model.Team{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return model.Team{}, err
	}
	if !strings.EqualFold(normalizeText(team.College), college) {
		return model.Team{}, auth.ErrInvalidCredentials
	}
	return team, nil
}

func (s *Server) authenticateAccount(c *gin.Context, role auth.Role, email, password string) (model.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.Account{}, auth.ErrInvalidCredentials
	}
	var (
		account model.Account
		err     error
	)
	if role == auth.RoleAdmin {
		account, err = s.store.FindAdminByEmail(c.Request.Context(), email)
	} else {
		account, err = s.store.FindReviewerByEmail(c.Request.Context(), email)
	}
	if errors.Is(err, model.ErrNotFound) {
		return model.Account{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return model.Account{}, err
	}
	if !auth.CheckPassword(account.PasswordHash, password) {
		return model.Account{}, auth.ErrInvalidCredentials
	}
	return account, nil
}

func (s *Server) writeLoginError(c *gin.Context, err error) {
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials.")
		return
	}
	writeWorkflowError(c, err)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
