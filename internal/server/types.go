package server

import (
	"encoding/json"
	"time"

	"hackathon-portal/internal/model"
	"hackathon-portal/internal/timer"
	"hackathon-portal/internal/workflow"
)

type loginRequest struct {
	Role        string `json:"role" binding:"required,oneof=team admin reviewer TEAM ADMIN REVIEWER"`
	TeamName    string `json:"teamName"`
	CollegeName string `json:"collegeName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type loginResponse struct {
	Token string         `json:"token"`
	Role  string         `json:"role"`
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Team  *model.Team    `json:"team,omitempty"`
	User  *model.Account `json:"user,omitempty"`
}

type saveDraftRequest struct {
	Content json.RawMessage `json:"content" binding:"required"`
}

type pitchDeckRequest struct {
	Content json.RawMessage `json:"content"`
}

type prototypeRequest struct {
	PrototypeURL string `json:"prototypeUrl" binding:"required,notblank"`
}

type certificateRequest struct {
	Name    string `json:"name" binding:"required,notblank"`
	College string `json:"college" binding:"required,notblank"`
	Year    string `json:"year" binding:"required,notblank"`
}

type participantsRequest struct {
	Participants []workflow.Participant `json:"participants" binding:"required,min=1"`
}

type selectQuestionRequest struct {
	ProblemID string `json:"problemId" binding:"required,notblank"`
}

type createTeamRequest struct {
	TeamName    string `json:"teamName" binding:"required,notblank,max=128"`
	CollegeName string `json:"collegeName" binding:"required,notblank"`
	Member1     string `json:"member1"`
	Member2     string `json:"member2"`
	Dept        string `json:"dept"`
	Year        int    `json:"year" binding:"gte=0,lte=10"`
}

type teamURI struct {
	ID string `uri:"id" binding:"required"`
}

type regeneratePermissionRequest struct {
	Allowed *bool `json:"allowed" binding:"required"`
}

type testConfigRequest struct {
	DurationMinutes int `json:"durationMinutes" binding:"required,gt=0"`
}

type timerResetRequest struct {
	DurationMinutes int `json:"durationMinutes" binding:"gte=0"`
}

type problemRequest struct {
	QuestionNo   string `json:"questionNo" binding:"required,notblank"`
	SubDivisions string `json:"subDivisions"`
	Title        string `json:"title" binding:"required,notblank"`
	Description  string `json:"description" binding:"required,notblank"`
	AllottedTo   string `json:"allottedTo"`
}

type allotRequest struct {
	AllottedTo *string `json:"allottedTo"`
}

type reviewerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required,notblank"`
	Domain   string `json:"domain"`
}

type scoreRequest struct {
	SubmissionID string `json:"submissionId" binding:"required,notblank"`
	Innovation   int    `json:"innovation" binding:"gte=0,lte=10"`
	Feasibility  int    `json:"feasibility" binding:"gte=0,lte=10"`
	TechStack    int    `json:"techStack" binding:"gte=0,lte=10"`
	Presentation int    `json:"presentation" binding:"gte=0,lte=10"`
	Impact       int    `json:"impact" binding:"gte=0,lte=10"`
	Comments     string `json:"comments"`
}

type profileResponse struct {
	Team            model.Team               `json:"team"`
	Submission      *model.Submission        `json:"submission"`
	Problems        []model.ProblemStatement `json:"problems"`
	SelectedProblem *model.ProblemStatement  `json:"selectedProblem"`
	Config          model.Config             `json:"config"`
	Timer           timer.Snapshot           `json:"timer"`
}

type candidate struct {
	Team         model.Team          `json:"team"`
	Status       model.Status        `json:"status"`
	Progress     int                 `json:"progress"`
	LastSaved    *time.Time          `json:"lastSaved"`
	ArtifactURL  *string             `json:"pptUrl"`
	PrototypeURL *string             `json:"prototypeUrl"`
	Certificates []model.Certificate `json:"certificates"`
}

type reviewerTeam struct {
	Team         model.Team   `json:"team"`
	SubmissionID string       `json:"submissionId,omitempty"`
	Status       model.Status `json:"status"`
	ArtifactURL  *string      `json:"pptUrl"`
	PrototypeURL *string      `json:"prototypeUrl"`
	MyScore      *model.Score `json:"myScore"`
}
