package server

// Websocket event names.
const (
	eventTimerUpdate        = "timerUpdate"
	eventTestEnded          = "testEnded"
	eventRegistrationUpdate = "registrationUpdate"
	eventAdminCommand       = "adminCommand"
	eventError              = "error"
)

// Audit event types.
const (
	auditDraftSaved          = "draft_saved"
	auditArtifactGenerated   = "artifact_generated"
	auditExpertPitch         = "expert_pitch_generated"
	auditPrototypeSubmitted  = "prototype_submitted"
	auditCertificateLocked   = "certificate_submitted"
	auditParticipantsUpdated = "participant_certificates_saved"
	auditProblemSelected     = "problem_selected"
	auditTeamCreated         = "team_created"
	auditTeamDeleted         = "team_deleted"
	auditTeamUnlocked        = "team_unlocked"
	auditSelectionReset      = "team_selection_reset"
	auditForceRegenerate     = "artifact_force_regenerated"
	auditRegeneratePerm      = "regenerate_permission_set"
	auditHaltChanged         = "halt_changed"
	auditTimerReset          = "timer_reset"
	auditDurationSet         = "duration_set"
	auditCertificatesToggled = "certificate_collection_toggled"
	auditProblemCreated      = "problem_created"
	auditProblemAllotted     = "problem_allotted"
	auditProblemDeleted      = "problem_deleted"
	auditReviewerCreated     = "reviewer_created"
	auditScoreSaved          = "score_saved"
)

type EventPayload struct {
	TeamName        string `json:"team_name,omitempty"`
	Status          string `json:"status,omitempty"`
	ArtifactURL     string `json:"artifact_url,omitempty"`
	PrototypeURL    string `json:"prototype_url,omitempty"`
	ProblemID       string `json:"problem_id,omitempty"`
	AllottedTo      string `json:"allotted_to,omitempty"`
	ReviewerID      string `json:"reviewer_id,omitempty"`
	Paused          *bool  `json:"paused,omitempty"`
	Allowed         *bool  `json:"allowed,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	TimeRemaining   int    `json:"time_remaining,omitempty"`
	Total           int    `json:"total,omitempty"`
	Count           int    `json:"count,omitempty"`
	Source          string `json:"source,omitempty"`
}

func boolPtr(v bool) *bool {
	return &v
}
