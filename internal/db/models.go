package db

import (
	"time"

	"gorm.io/datatypes"
)

type HackathonConfig struct {
	ID                      uint      `gorm:"primaryKey;autoIncrement:false"`
	DurationMinutes         int       `gorm:"not null;default:1440"`
	IsPaused                bool      `gorm:"not null"`
	EventEnded              bool      `gorm:"not null;default:false"`
	AllowCertificateDetails bool      `gorm:"not null;default:false"`
	CreatedAt               time.Time `gorm:"not null"`
	UpdatedAt               time.Time `gorm:"not null"`
}

type Admin struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"size:255;uniqueIndex;not null"`
	Password  string    `gorm:"size:255;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Reviewer struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"size:255;uniqueIndex;not null"`
	Password  string    `gorm:"size:255;not null"`
	Name      string    `gorm:"size:128;not null"`
	Domain    string    `gorm:"size:128"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Team struct {
	ID                string    `gorm:"type:uuid;primaryKey"`
	TeamName          string    `gorm:"size:128;uniqueIndex;not null"`
	CollegeName       string    `gorm:"size:255;not null"`
	Member1           string    `gorm:"size:128"`
	Member2           string    `gorm:"size:128"`
	Dept              string    `gorm:"size:128"`
	Year              int       `gorm:"not null;default:0"`
	SelectedProblemID *string   `gorm:"type:uuid"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
	Submission        *Submission
}

type Submission struct {
	ID                 string         `gorm:"type:uuid;primaryKey"`
	TeamID             string         `gorm:"type:uuid;uniqueIndex;not null"`
	Status             string         `gorm:"size:32;not null;default:NOT_STARTED"`
	Content            datatypes.JSON `gorm:"type:jsonb"`
	PptURL             *string        `gorm:"column:ppt_url"`
	CanRegenerate      bool           `gorm:"not null"`
	PrototypeURL       *string
	CertificateName    *string
	CertificateCollege *string
	CertificateYear    *string
	SubmittedAt        *time.Time
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
	Certificates       []ParticipantCertificate
	Scores             []Score
}

type ParticipantCertificate struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	SubmissionID   string    `gorm:"type:uuid;index;not null"`
	Name           string    `gorm:"size:128;not null"`
	College        string    `gorm:"size:255;not null"`
	Year           string    `gorm:"size:16;not null"`
	Dept           string    `gorm:"size:128;not null"`
	Role           string    `gorm:"size:32;not null"`
	CertificateURL *string
	CreatedAt      time.Time `gorm:"not null"`
}

type ProblemStatement struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	QuestionNo   string    `gorm:"size:32;not null"`
	SubDivisions string    `gorm:"type:text"`
	Title        string    `gorm:"size:255;not null"`
	Description  string    `gorm:"type:text;not null"`
	AllottedTo   *string   `gorm:"size:128;index"`
	CreatedAt    time.Time `gorm:"not null"`
}

type Score struct {
	ID           uint      `gorm:"primaryKey"`
	SubmissionID string    `gorm:"type:uuid;not null;uniqueIndex:idx_scores_submission_reviewer"`
	ReviewerID   string    `gorm:"size:64;not null;uniqueIndex:idx_scores_submission_reviewer"`
	Innovation   int       `gorm:"not null;default:0"`
	Feasibility  int       `gorm:"not null;default:0"`
	TechStack    int       `gorm:"not null;default:0"`
	Presentation int       `gorm:"not null;default:0"`
	Impact       int       `gorm:"not null;default:0"`
	Total        int       `gorm:"not null;default:0"`
	Comments     string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	TeamID    *string        `gorm:"type:uuid;index"`
	ActorID   string         `gorm:"size:64"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
