package server

import (
	"errors"
	"net/http"

	"hackathon-portal/internal/generator"
	"hackathon-portal/internal/model"
	"hackathon-portal/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func writeError(c *gin.Context, status int, reason, message string) {
	c.JSON(status, gin.H{
		"error":  message,
		"reason": reason,
	})
}

// writeWorkflowError maps domain errors onto status codes and machine reasons.
func writeWorkflowError(c *gin.Context, err error) {
	var (
		prereq      *workflow.PrerequisiteError
		unreachable *generator.UnreachableError
		logic       *generator.LogicError
	)
	switch {
	case errors.Is(err, workflow.ErrSystemHalted):
		writeError(c, http.StatusLocked, "system_halted", "System halted by administrator.")
	case errors.Is(err, workflow.ErrLocked):
		writeError(c, http.StatusForbidden, "locked", "Submission locked. Contact admin for regeneration permission.")
	case errors.As(err, &prereq):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Complete the " + prereq.Step + " step first.",
			"reason": "prerequisite_missing",
			"step":   prereq.Step,
		})
	case errors.Is(err, workflow.ErrWindowClosed):
		writeError(c, http.StatusConflict, "window_closed", "The submission window has closed.")
	case errors.Is(err, workflow.ErrCertificatesClosed):
		writeError(c, http.StatusForbidden, "certificates_closed", "Certificate collection is not open.")
	case errors.Is(err, workflow.ErrGenerationInProgress):
		writeError(c, http.StatusConflict, "generation_in_progress", "A generation request is already running.")
	case errors.Is(err, workflow.ErrNotAllotted):
		writeError(c, http.StatusForbidden, "not_allotted", "This problem statement is not allotted to your team.")
	case errors.Is(err, workflow.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, model.ErrConflict):
		writeError(c, http.StatusConflict, "conflict", err.Error())
	case errors.As(err, &unreachable):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":    "Generation service unreachable.",
			"reason":   "delegate_unreachable",
			"attempts": unreachable.Endpoints(),
			"detail":   errString(unreachable.Last),
		})
	case errors.As(err, &logic):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    logic.Message,
			"reason":   "delegate_logic_error",
			"endpoint": logic.Endpoint,
		})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		writeError(c, http.StatusInternalServerError, "internal", "Internal server error.")
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
