// Package model holds the domain records shared by the store, workflow and
// server packages.
package model

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// ConfigID is the fixed key of the singleton configuration row.
const ConfigID = 1

type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSubmitted  Status = "SUBMITTED"
	StatusLocked     Status = "LOCKED"
)

// Finalized reports whether team content edits are rejected in this status.
func (s Status) Finalized() bool {
	return s == StatusSubmitted || s == StatusLocked
}

type Config struct {
	DurationMinutes         int  `json:"durationMinutes"`
	IsPaused                bool `json:"isPaused"`
	EventEnded              bool `json:"eventEnded"`
	AllowCertificateDetails bool `json:"allowCertificateDetails"`
}

type Team struct {
	ID                string    `json:"id"`
	Name              string    `json:"teamName"`
	College           string    `json:"collegeName"`
	Member1           string    `json:"member1,omitempty"`
	Member2           string    `json:"member2,omitempty"`
	Dept              string    `json:"dept,omitempty"`
	Year              int       `json:"year,omitempty"`
	SelectedProblemID *string   `json:"selectedProblemId"`
	CreatedAt         time.Time `json:"createdAt"`
}

type Certificate struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	College        string  `json:"college"`
	Year           string  `json:"year"`
	Dept           string  `json:"dept"`
	Role           string  `json:"role"`
	CertificateURL *string `json:"certificateUrl"`
}

type Submission struct {
	ID                 string          `json:"id"`
	TeamID             string          `json:"teamId"`
	Status             Status          `json:"status"`
	Content            json.RawMessage `json:"content"`
	ArtifactURL        *string         `json:"pptUrl"`
	CanRegenerate      bool            `json:"canRegenerate"`
	PrototypeURL       *string         `json:"prototypeUrl"`
	CertificateName    *string         `json:"certificateName"`
	CertificateCollege *string         `json:"certificateCollege"`
	CertificateYear    *string         `json:"certificateYear"`
	SubmittedAt        *time.Time      `json:"submittedAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	Certificates       []Certificate   `json:"certificates"`
}

// HasContent reports whether the team has saved a non-empty payload.
func (s Submission) HasContent() bool {
	return hasPayload(s.Content)
}

// ProgressSections are the content keys counted by Progress.
var ProgressSections = []string{
	"title", "abstract", "problem", "solution",
	"architecture", "technologies", "impact", "outcome",
}

// Progress is the rounded percentage of sections holding more than five
// characters.
func (s Submission) Progress() int {
	if !s.HasContent() {
		return 0
	}
	var sections map[string]any
	if err := json.Unmarshal(s.Content, &sections); err != nil {
		return 0
	}
	filled := 0
	for _, key := range ProgressSections {
		if text, ok := sections[key].(string); ok && len(text) > 5 {
			filled++
		}
	}
	return int(math.Round(float64(filled) * 100 / float64(len(ProgressSections))))
}

// TeamOverview pairs a team with its submission, if any.
type TeamOverview struct {
	Team       Team        `json:"team"`
	Submission *Submission `json:"submission"`
}

type ProblemStatement struct {
	ID           string    `json:"id"`
	QuestionNo   string    `json:"questionNo"`
	SubDivisions string    `json:"subDivisions,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	AllottedTo   *string   `json:"allottedTo"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AllottedToTeam matches the allotment by team id or team name.
func (p ProblemStatement) AllottedToTeam(team Team) bool {
	if p.AllottedTo == nil {
		return false
	}
	return *p.AllottedTo == team.ID || *p.AllottedTo == team.Name
}

type Account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	Domain       string `json:"domain,omitempty"`
	PasswordHash string `json:"-"`
}

type Score struct {
	SubmissionID string    `json:"submissionId"`
	ReviewerID   string    `json:"reviewerId"`
	Innovation   int       `json:"innovation"`
	Feasibility  int       `json:"feasibility"`
	TechStack    int       `json:"techStack"`
	Presentation int       `json:"presentation"`
	Impact       int       `json:"impact"`
	Total        int       `json:"total"`
	Comments     string    `json:"comments"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Event struct {
	Type      string          `json:"type"`
	TeamID    string          `json:"teamId,omitempty"`
	ActorID   string          `json:"actorId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

func hasPayload(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "{}", "[]", `""`:
		return false
	}
	return true
}
