package server

import (
	"context"
	"encoding/json"

	"hackathon-portal/internal/model"

	"github.com/rs/zerolog/log"
)

// recordEvent stores an audit row and publishes it. Failures are logged and
// never surface to the caller.
func (s *Server) recordEvent(ctx context.Context, eventType, teamID, actorID string, payload EventPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("encode event payload")
		return
	}
	event := model.Event{
		Type:      eventType,
		TeamID:    teamID,
		ActorID:   actorID,
		Payload:   data,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.store.RecordEvent(ctx, event); err != nil {
		log.Error().Err(err).Str("event", eventType).Str("team_id", teamID).Msg("persist event")
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("publish event")
	}
}
