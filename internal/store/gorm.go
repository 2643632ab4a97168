package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hackathon-portal/internal/db"
	"hackathon-portal/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is the Postgres-backed store.
type Gorm struct {
	conn *gorm.DB
}

func NewGorm(conn *gorm.DB) *Gorm {
	return &Gorm{conn: conn}
}

func (g *Gorm) GetConfig(ctx context.Context) (model.Config, error) {
	var record db.HackathonConfig
	if err := g.conn.WithContext(ctx).First(&record, "id = ?", model.ConfigID).Error; err != nil {
		return model.Config{}, mapErr(err, "config")
	}
	return configFromRecord(record), nil
}

func (g *Gorm) EnsureConfig(ctx context.Context, defaults model.Config) (model.Config, error) {
	record := configRecord(defaults)
	if err := g.conn.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error; err != nil {
		return model.Config{}, err
	}
	return g.GetConfig(ctx)
}

func (g *Gorm) UpdateConfig(ctx context.Context, update func(cfg *model.Config) error) (model.Config, error) {
	var result model.Config
	err := g.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record db.HackathonConfig
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", model.ConfigID).Error; err != nil {
			return mapErr(err, "config")
		}
		cfg := configFromRecord(record)
		if err := update(&cfg); err != nil {
			return err
		}
		record.DurationMinutes = cfg.DurationMinutes
		record.IsPaused = cfg.IsPaused
		record.EventEnded = cfg.EventEnded
		record.AllowCertificateDetails = cfg.AllowCertificateDetails
		if err := tx.Save(&record).Error; err != nil {
			return err
		}
		result = cfg
		return nil
	})
	return result, err
}

func (g *Gorm) CreateTeam(ctx context.Context, team model.Team) (model.Team, error) {
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	var existing int64
	if err := g.conn.WithContext(ctx).Model(&db.Team{}).
		Where("lower(team_name) = lower(?)", team.Name).
		Count(&existing).Error; err != nil {
		return model.Team{}, err
	}
	if existing > 0 {
		return model.Team{}, fmt.Errorf("team %q: %w", team.Name, model.ErrConflict)
	}
	record := db.Team{
		ID:                team.ID,
		TeamName:          team.Name,
		CollegeName:       team.College,
		Member1:           team.Member1,
		Member2:           team.Member2,
		Dept:              team.Dept,
		Year:              team.Year,
		SelectedProblemID: team.SelectedProblemID,
	}
	if err := g.conn.WithContext(ctx).Omit(clause.Associations).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return model.Team{}, fmt.Errorf("team %q: %w", team.Name, model.ErrConflict)
		}
		return model.Team{}, err
	}
	return teamFromRecord(record), nil
}

func (g *Gorm) GetTeam(ctx context.Context, id string) (model.Team, error) {
	var record db.Team
	if err := g.conn.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return model.Team{}, mapErr(err, "team")
	}
	return teamFromRecord(record), nil
}

func (g *Gorm) FindTeamByName(ctx context.Context, name string) (model.Team, error) {
	var record db.Team
	if err := g.conn.WithContext(ctx).
		Where("lower(team_name) = lower(?)", strings.TrimSpace(name)).
		First(&record).Error; err != nil {
		return model.Team{}, mapErr(err, "team")
	}
	return teamFromRecord(record), nil
}

func (g *Gorm) ListTeams(ctx context.Context) ([]model.TeamOverview, error) {
	var records []db.Team
	if err := g.conn.WithContext(ctx).
		Preload("Submission.Certificates").
		Order("lower(team_name)").
		Find(&records).Error; err != nil {
		return nil, err
	}
	list := make([]model.TeamOverview, 0, len(records))
	for _, record := range records {
		overview := model.TeamOverview{Team: teamFromRecord(record)}
		if record.Submission != nil {
			sub := submissionFromRecord(*record.Submission)
			overview.Submission = &sub
		}
		list = append(list, overview)
	}
	return list, nil
}

func (g *Gorm) UpdateTeam(ctx context.Context, id string, update func(team *model.Team) error) (model.Team, error) {
	var result model.Team
	err := g.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record db.Team
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "id = ?", id).Error; err != nil {
			return mapErr(err, "team")
		}
		team := teamFromRecord(record)
		if err := update(&team); err != nil {
			return err
		}
		record.TeamName = team.Name
		record.CollegeName = team.College
		record.Member1 = team.Member1
		record.Member2 = team.Member2
		record.Dept = team.Dept
		record.Year = team.Year
		record.SelectedProblemID = team.SelectedProblemID
		if err := tx.Omit(clause.Associations).Save(&record).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("team %q: %w", team.Name, model.ErrConflict)
			}
			return err
		}
		result = teamFromRecord(record)
		return nil
	})
	return result, err
}

func (g *Gorm) DeleteTeamCascade(ctx context.Context, id string) error {
	return g.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var team db.Team
		if err := tx.First(&team, "id = ?", id).Error; err != nil {
			return mapErr(err, "team")
		}
		var sub db.Submission
		err := tx.First(&sub, "team_id = ?", id).Error
		switch {
		case err == nil:
			if err := tx.Where("submission_id = ?", sub.ID).Delete(&db.Score{}).Error; err != nil {
				return err
			}
			if err := tx.Where("submission_id = ?", sub.ID).Delete(&db.ParticipantCertificate{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&db.Submission{}, "id = ?", sub.ID).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		if err := tx.Model(&db.ProblemStatement{}).
			Where("allotted_to IN ?", []string{team.ID, team.TeamName}).
			Update("allotted_to", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&db.Team{}, "id = ?", id).Error
	})
}

func (g *Gorm) GetSubmission(ctx context.Context, teamID string) (model.Submission, error) {
	var record db.Submission
	if err := g.conn.WithContext(ctx).
		Preload("Certificates").
		First(&record, "team_id = ?", teamID).Error; err != nil {
		return model.Submission{}, mapErr(err, "submission")
	}
	return submissionFromRecord(record), nil
}

func (g *Gorm) MutateSubmission(ctx context.Context, teamID string, create bool, fn SubmissionMutator) (model.Submission, error) {
	result, err := g.mutateSubmission(ctx, teamID, create, fn)
	// Two first writes for the same team can race on the unique team_id
	// index; the loser retries against the row the winner created.
	if err != nil && create && isUniqueViolation(err) {
		return g.mutateSubmission(ctx, teamID, create, fn)
	}
	return result, err
}

func (g *Gorm) mutateSubmission(ctx context.Context, teamID string, create bool, fn SubmissionMutator) (model.Submission, error) {
	var result model.Submission
	err := g.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var team db.Team
		if err := tx.Select("id").First(&team, "id = ?", teamID).Error; err != nil {
			return mapErr(err, "team")
		}
		var record db.Submission
		isNew := false
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Certificates").
			First(&record, "team_id = ?", teamID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if !create {
				return fmt.Errorf("submission: %w", model.ErrNotFound)
			}
			isNew = true
			record = db.Submission{
				ID:            uuid.NewString(),
				TeamID:        teamID,
				Status:        string(model.StatusNotStarted),
				CanRegenerate: true,
			}
		case err != nil:
			return err
		}

		current := submissionFromRecord(record)
		next := cloneSubmission(current)
		if err := fn(&next); err != nil {
			return err
		}
		applySubmission(&record, next)
		record.Certificates = nil

		if isNew {
			if err := tx.Omit(clause.Associations).Create(&record).Error; err != nil {
				return err
			}
		} else if err := tx.Omit(clause.Associations).Save(&record).Error; err != nil {
			return err
		}

		if certificatesChanged(current.Certificates, next.Certificates) {
			if err := tx.Where("submission_id = ?", record.ID).Delete(&db.ParticipantCertificate{}).Error; err != nil {
				return err
			}
			if len(next.Certificates) > 0 {
				rows := make([]db.ParticipantCertificate, 0, len(next.Certificates))
				for _, cert := range next.Certificates {
					if cert.ID == "" {
						cert.ID = uuid.NewString()
					}
					rows = append(rows, db.ParticipantCertificate{
						ID:             cert.ID,
						SubmissionID:   record.ID,
						Name:           cert.Name,
						College:        cert.College,
						Year:           cert.Year,
						Dept:           cert.Dept,
						Role:           cert.Role,
						CertificateURL: cert.CertificateURL,
					})
				}
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
				record.Certificates = rows
			}
		} else {
			record.Certificates = certificateRecords(record.ID, current.Certificates)
		}
		result = submissionFromRecord(record)
		return nil
	})
	return result, err
}

func (g *Gorm) CreateProblem(ctx context.Context, problem model.ProblemStatement) (model.ProblemStatement, error) {
	if problem.ID == "" {
		problem.ID = uuid.NewString()
	}
	record := db.ProblemStatement{
		ID:           problem.ID,
		QuestionNo:   problem.QuestionNo,
		SubDivisions: problem.SubDivisions,
		Title:        problem.Title,
		Description:  problem.Description,
		AllottedTo:   problem.AllottedTo,
	}
	if err := g.conn.WithContext(ctx).Create(&record).Error; err != nil {
		return model.ProblemStatement{}, err
	}
	return problemFromRecord(record), nil
}

func (g *Gorm) GetProblem(ctx context.Context, id string) (model.ProblemStatement, error) {
	var record db.ProblemStatement
	if err := g.conn.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return model.ProblemStatement{}, mapErr(err, "problem statement")
	}
	return problemFromRecord(record), nil
}

func (g *Gorm) ListProblems(ctx context.Context) ([]model.ProblemStatement, error) {
	var records []db.ProblemStatement
	if err := g.conn.WithContext(ctx).Order("question_no, id").Find(&records).Error; err != nil {
		return nil, err
	}
	list := make([]model.ProblemStatement, 0, len(records))
	for _, record := range records {
		list = append(list, problemFromRecord(record))
	}
	return list, nil
}

func (g *Gorm) AllotProblem(ctx context.Context, id string, allottedTo *string) (model.ProblemStatement, error) {
	res := g.conn.WithContext(ctx).Model(&db.ProblemStatement{}).
		Where("id = ?", id).
		Update("allotted_to", allottedTo)
	if res.Error != nil {
		return model.ProblemStatement{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.ProblemStatement{}, fmt.Errorf("problem statement: %w", model.ErrNotFound)
	}
	return g.GetProblem(ctx, id)
}

func (g *Gorm) DeleteProblem(ctx context.Context, id string) error {
	return g.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&db.ProblemStatement{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("problem statement: %w", model.ErrNotFound)
		}
		return tx.Model(&db.Team{}).
			Where("selected_problem_id = ?", id).
			Update("selected_problem_id", nil).Error
	})
}

func (g *Gorm) FindAdminByEmail(ctx context.Context, email string) (model.Account, error) {
	var record db.Admin
	if err := g.conn.WithContext(ctx).
		Where("lower(email) = lower(?)", strings.TrimSpace(email)).
		First(&record).Error; err != nil {
		return model.Account{}, mapErr(err, "admin")
	}
	return model.Account{ID: record.ID, Email: record.Email, PasswordHash: record.Password}, nil
}

func (g *Gorm) UpsertAdmin(ctx context.Context, email, passwordHash string) (model.Account, error) {
	record := db.Admin{
		ID:       uuid.NewString(),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: passwordHash,
	}
	if err := g.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"password", "updated_at"}),
		}).
		Create(&record).Error; err != nil {
		return model.Account{}, err
	}
	return g.FindAdminByEmail(ctx, record.Email)
}

func (g *Gorm) FindReviewerByEmail(ctx context.Context, email string) (model.Account, error) {
	var record db.Reviewer
	if err := g.conn.WithContext(ctx).
		Where("lower(email) = lower(?)", strings.TrimSpace(email)).
		First(&record).Error; err != nil {
		return model.Account{}, mapErr(err, "reviewer")
	}
	return reviewerFromRecord(record), nil
}

func (g *Gorm) CreateReviewer(ctx context.Context, reviewer model.Account) (model.Account, error) {
	if reviewer.ID == "" {
		reviewer.ID = uuid.NewString()
	}
	record := db.Reviewer{
		ID:       reviewer.ID,
		Email:    strings.ToLower(strings.TrimSpace(reviewer.Email)),
		Password: reviewer.PasswordHash,
		Name:     reviewer.Name,
		Domain:   reviewer.Domain,
	}
	if err := g.conn.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, fmt.Errorf("reviewer %q: %w", reviewer.Email, model.ErrConflict)
		}
		return model.Account{}, err
	}
	return reviewerFromRecord(record), nil
}

func (g *Gorm) UpsertScore(ctx context.Context, score model.Score) (model.Score, error) {
	var count int64
	if err := g.conn.WithContext(ctx).Model(&db.Submission{}).
		Where("id = ?", score.SubmissionID).
		Count(&count).Error; err != nil {
		return model.Score{}, err
	}
	if count == 0 {
		return model.Score{}, fmt.Errorf("submission: %w", model.ErrNotFound)
	}
	record := db.Score{
		SubmissionID: score.SubmissionID,
		ReviewerID:   score.ReviewerID,
		Innovation:   score.Innovation,
		Feasibility:  score.Feasibility,
		TechStack:    score.TechStack,
		Presentation: score.Presentation,
		Impact:       score.Impact,
		Total:        score.Total,
		Comments:     score.Comments,
	}
	if err := g.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "submission_id"}, {Name: "reviewer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"innovation", "feasibility", "tech_stack", "presentation", "impact",
				"total", "comments", "updated_at",
			}),
		}).
		Create(&record).Error; err != nil {
		return model.Score{}, err
	}
	return scoreFromRecord(record), nil
}

func (g *Gorm) ListScores(ctx context.Context, submissionID string) ([]model.Score, error) {
	var records []db.Score
	if err := g.conn.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("reviewer_id").
		Find(&records).Error; err != nil {
		return nil, err
	}
	list := make([]model.Score, 0, len(records))
	for _, record := range records {
		list = append(list, scoreFromRecord(record))
	}
	return list, nil
}

func (g *Gorm) RecordEvent(ctx context.Context, event model.Event) error {
	payload := datatypes.JSON(event.Payload)
	if len(payload) == 0 {
		payload = datatypes.JSON("{}")
	}
	record := db.Event{
		ActorID: event.ActorID,
		Type:    event.Type,
		Payload: payload,
	}
	if event.TeamID != "" {
		teamID := event.TeamID
		record.TeamID = &teamID
	}
	return g.conn.WithContext(ctx).Create(&record).Error
}

func (g *Gorm) ResetEvent(ctx context.Context, defaults model.Config) error {
	return g.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []any{
			&db.Score{},
			&db.ParticipantCertificate{},
			&db.Submission{},
			&db.Event{},
			&db.Team{},
			&db.ProblemStatement{},
		} {
			if err := tx.Where("1 = 1").Delete(table).Error; err != nil {
				return err
			}
		}
		record := configRecord(defaults)
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error
	})
}

func configRecord(cfg model.Config) db.HackathonConfig {
	return db.HackathonConfig{
		ID:                      model.ConfigID,
		DurationMinutes:         cfg.DurationMinutes,
		IsPaused:                cfg.IsPaused,
		EventEnded:              cfg.EventEnded,
		AllowCertificateDetails: cfg.AllowCertificateDetails,
	}
}

func configFromRecord(record db.HackathonConfig) model.Config {
	return model.Config{
		DurationMinutes:         record.DurationMinutes,
		IsPaused:                record.IsPaused,
		EventEnded:              record.EventEnded,
		AllowCertificateDetails: record.AllowCertificateDetails,
	}
}

func teamFromRecord(record db.Team) model.Team {
	return model.Team{
		ID:                record.ID,
		Name:              record.TeamName,
		College:           record.CollegeName,
		Member1:           record.Member1,
		Member2:           record.Member2,
		Dept:              record.Dept,
		Year:              record.Year,
		SelectedProblemID: record.SelectedProblemID,
		CreatedAt:         record.CreatedAt,
	}
}

func submissionFromRecord(record db.Submission) model.Submission {
	sub := model.Submission{
		ID:                 record.ID,
		TeamID:             record.TeamID,
		Status:             model.Status(record.Status),
		ArtifactURL:        record.PptURL,
		CanRegenerate:      record.CanRegenerate,
		PrototypeURL:       record.PrototypeURL,
		CertificateName:    record.CertificateName,
		CertificateCollege: record.CertificateCollege,
		CertificateYear:    record.CertificateYear,
		SubmittedAt:        record.SubmittedAt,
		UpdatedAt:          record.UpdatedAt,
	}
	if len(record.Content) > 0 {
		sub.Content = json.RawMessage(append([]byte(nil), record.Content...))
	}
	for _, cert := range record.Certificates {
		sub.Certificates = append(sub.Certificates, model.Certificate{
			ID:             cert.ID,
			Name:           cert.Name,
			College:        cert.College,
			Year:           cert.Year,
			Dept:           cert.Dept,
			Role:           cert.Role,
			CertificateURL: cert.CertificateURL,
		})
	}
	return sub
}

func applySubmission(record *db.Submission, sub model.Submission) {
	record.Status = string(sub.Status)
	record.Content = nil
	if len(sub.Content) > 0 {
		record.Content = datatypes.JSON(sub.Content)
	}
	record.PptURL = sub.ArtifactURL
	record.CanRegenerate = sub.CanRegenerate
	record.PrototypeURL = sub.PrototypeURL
	record.CertificateName = sub.CertificateName
	record.CertificateCollege = sub.CertificateCollege
	record.CertificateYear = sub.CertificateYear
	record.SubmittedAt = sub.SubmittedAt
	record.UpdatedAt = time.Now().UTC()
}

func certificateRecords(submissionID string, certs []model.Certificate) []db.ParticipantCertificate {
	rows := make([]db.ParticipantCertificate, 0, len(certs))
	for _, cert := range certs {
		rows = append(rows, db.ParticipantCertificate{
			ID:             cert.ID,
			SubmissionID:   submissionID,
			Name:           cert.Name,
			College:        cert.College,
			Year:           cert.Year,
			Dept:           cert.Dept,
			Role:           cert.Role,
			CertificateURL: cert.CertificateURL,
		})
	}
	return rows
}

func certificatesChanged(before, after []model.Certificate) bool {
	if len(before) != len(after) {
		return true
	}
	for i := range before {
		a, b := before[i], after[i]
		if a.ID != b.ID || a.Name != b.Name || a.College != b.College || a.Year != b.Year ||
			a.Dept != b.Dept || a.Role != b.Role || !sameURL(a.CertificateURL, b.CertificateURL) {
			return true
		}
	}
	return false
}

func sameURL(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func problemFromRecord(record db.ProblemStatement) model.ProblemStatement {
	return model.ProblemStatement{
		ID:           record.ID,
		QuestionNo:   record.QuestionNo,
		SubDivisions: record.SubDivisions,
		Title:        record.Title,
		Description:  record.Description,
		AllottedTo:   record.AllottedTo,
		CreatedAt:    record.CreatedAt,
	}
}

func reviewerFromRecord(record db.Reviewer) model.Account {
	return model.Account{
		ID:           record.ID,
		Email:        record.Email,
		Name:         record.Name,
		Domain:       record.Domain,
		PasswordHash: record.Password,
	}
}

func scoreFromRecord(record db.Score) model.Score {
	return model.Score{
		SubmissionID: record.SubmissionID,
		ReviewerID:   record.ReviewerID,
		Innovation:   record.Innovation,
		Feasibility:  record.Feasibility,
		TechStack:    record.TechStack,
		Presentation: record.Presentation,
		Impact:       record.Impact,
		Total:        record.Total,
		Comments:     record.Comments,
		UpdatedAt:    record.UpdatedAt,
	}
}

func mapErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
