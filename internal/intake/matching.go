package intake

import (
	"context"
	"fmt"

	"github.com/dentalstack/intake-platform/internal/assist"
)

// defaultUrgencyScore is assumed when matching runs before any urgency
// assessment was recorded.
const defaultUrgencyScore = 5

// MatchingResult is the outcome of one dentist-matching run.
type MatchingResult struct {
	SessionID         string           `json:"session_id"`
	MatchedDentistIDs []string         `json:"matched_dentist_ids"`
	Reasoning         []MatchReasoning `json:"reasoning"`
}

// PerformDentistMatching fetches the practice's active roster, asks the
// matching backend to rank it against the collected symptoms and urgency,
// and persists the ranked outcome. The backend's ordering is authoritative
// and preserved verbatim; no local re-sorting or tie-breaking happens.
//
// An empty roster is a hard failure (ErrEmptyRoster), not "no matches";
// the session is left untouched in that case.
func (s *Service) PerformDentistMatching(ctx context.Context, sessionID string) (*MatchingResult, error) {
	ctx, span := intakeTracer.Start(ctx, "intake.match_dentists")
	defer span.End()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	roster, err := s.roster.ListActive(ctx, session.BusinessID)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to load dentist roster",
			"session_id", sessionID,
			"business_id", session.BusinessID,
			"error", err,
		)
		return nil, fmt.Errorf("intake: load roster for %s: %w", sessionID, err)
	}
	if len(roster) == 0 {
		s.logger.Warn("no active dentists for practice",
			"session_id", sessionID,
			"business_id", session.BusinessID,
		)
		return nil, ErrEmptyRoster
	}
	s.metrics.ObserveMatchRoster(len(roster))

	candidates := make([]assist.MatchCandidate, 0, len(roster))
	specsByID := make(map[string][]string, len(roster))
	for _, dentist := range roster {
		specs, err := s.roster.Specializations(ctx, dentist.ID)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("intake: load specializations for dentist %s: %w", dentist.ID, err)
		}
		specsByID[dentist.ID] = specs
		candidates = append(candidates, assist.MatchCandidate{
			Dentist:         dentist,
			Specializations: specs,
		})
	}

	urgency := defaultUrgencyScore
	if session.UrgencyScore != nil {
		urgency = *session.UrgencyScore
	}

	start := s.now()
	resp, err := s.matcher.MatchDentists(ctx, assist.MatchRequest{
		SessionID:    sessionID,
		BusinessID:   session.BusinessID,
		Symptoms:     symptomsToAssist(session.SymptomsCollected),
		UrgencyScore: urgency,
		Candidates:   candidates,
	})
	s.observeAI("matching", err, start)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("matching backend failed",
			"session_id", sessionID,
			"business_id", session.BusinessID,
			"error", err,
		)
		return nil, fmt.Errorf("intake: match dentists for %s: %w", sessionID, err)
	}

	dentistsByID := make(map[string]int, len(roster))
	for i, d := range roster {
		dentistsByID[d.ID] = i
	}

	ids := make([]string, 0, len(resp.Matches))
	reasoning := make([]MatchReasoning, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		ids = append(ids, match.DentistID)
		entry := MatchReasoning{
			DentistID:  match.DentistID,
			Score:      match.Score,
			Reasoning:  match.Reasoning,
			Highlights: match.Highlights,
			Specialization: SpecializationMatch{
				Score:           match.SpecializationScore,
				Specializations: specsByID[match.DentistID],
			},
		}
		// Availability is summarized from the roster snapshot; slot counts
		// are not computed during matching.
		if idx, ok := dentistsByID[match.DentistID]; ok {
			entry.Availability = AvailabilitySummary{
				EarliestSlot: roster[idx].NextAvailable,
			}
		}
		reasoning = append(reasoning, entry)
	}

	status := StatusMatchingDentist
	alternatives := len(ids) > 1
	patch := SessionPatch{
		Status:                   &status,
		MatchedDentistIDs:        ids,
		MatchingReasoning:        reasoning,
		AlternativeDentistsShown: &alternatives,
	}
	if err := s.store.Update(ctx, sessionID, patch); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("intake: persist matching for %s: %w", sessionID, err)
	}

	s.events.MatchingCompleted(ctx, sessionID, session.BusinessID, len(roster), len(ids))
	return &MatchingResult{
		SessionID:         sessionID,
		MatchedDentistIDs: ids,
		Reasoning:         reasoning,
	}, nil
}
