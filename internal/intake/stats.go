package intake

import (
	"context"
	"sort"
	"time"
)

// SymptomCount is one entry of the top-symptoms ranking.
type SymptomCount struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// StatisticsSummary aggregates a practice's intake sessions over a window.
type StatisticsSummary struct {
	BusinessID         string         `json:"business_id"`
	TotalStarted       int            `json:"total_started"`
	TotalCompleted     int            `json:"total_completed"`
	TotalAbandoned     int            `json:"total_abandoned"`
	CompletionRate     float64        `json:"completion_rate"`
	AvgDurationSeconds float64        `json:"avg_duration_seconds"`
	TopSymptoms        []SymptomCount `json:"top_symptoms"`
}

const topSymptomsLimit = 10

// GetStatistics is a read-only aggregation over the practice's sessions,
// optionally windowed on started_at.
func (s *Service) GetStatistics(ctx context.Context, businessID string, start, end *time.Time) (*StatisticsSummary, error) {
	ctx, span := intakeTracer.Start(ctx, "intake.statistics")
	defer span.End()

	sessions, err := s.store.ListByBusiness(ctx, businessID, start, end)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to list sessions for statistics", "business_id", businessID, "error", err)
		return nil, err
	}

	summary := &StatisticsSummary{
		BusinessID:   businessID,
		TotalStarted: len(sessions),
		TopSymptoms:  []SymptomCount{},
	}

	var durationSum int64
	var durationCount int
	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	for _, session := range sessions {
		switch session.Status {
		case StatusCompleted:
			summary.TotalCompleted++
			if session.IntakeDurationSeconds != nil {
				durationSum += *session.IntakeDurationSeconds
				durationCount++
			}
		case StatusAbandoned:
			summary.TotalAbandoned++
		}
		for _, symptom := range session.SymptomsCollected {
			if _, ok := firstSeen[symptom.Text]; !ok {
				firstSeen[symptom.Text] = len(firstSeen)
			}
			counts[symptom.Text]++
		}
	}

	if summary.TotalStarted > 0 {
		summary.CompletionRate = float64(summary.TotalCompleted) / float64(summary.TotalStarted) * 100
	}
	if durationCount > 0 {
		summary.AvgDurationSeconds = float64(durationSum) / float64(durationCount)
	}

	ranked := make([]SymptomCount, 0, len(counts))
	for text, count := range counts {
		ranked = append(ranked, SymptomCount{Text: text, Count: count})
	}
	// Ties keep first-encountered order across the fetched sessions.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Text] < firstSeen[ranked[j].Text]
	})
	if len(ranked) > topSymptomsLimit {
		ranked = ranked[:topSymptomsLimit]
	}
	summary.TopSymptoms = ranked

	return summary, nil
}
