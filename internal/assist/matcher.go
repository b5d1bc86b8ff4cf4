package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dentalstack/intake-platform/pkg/logging"
)

// LLMMatcher implements DentistMatcher on top of an LLMClient.
type LLMMatcher struct {
	client LLMClient
	model  string
	logger *logging.Logger
}

// NewLLMMatcher creates an LLM-backed dentist matcher.
func NewLLMMatcher(client LLMClient, model string, logger *logging.Logger) *LLMMatcher {
	if client == nil {
		panic("assist: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMMatcher{client: client, model: model, logger: logger}
}

type matcherReply struct {
	MatchedDentists []MatchedDentist `json:"matched_dentists"`
}

// MatchDentists asks the model to rank the candidate roster. One model call
// per matching request; the reply order is returned verbatim.
func (m *LLMMatcher) MatchDentists(ctx context.Context, req MatchRequest) (*MatchResponse, error) {
	if len(req.Candidates) == 0 {
		return nil, errors.New("assist: matching requires at least one candidate")
	}

	resp, err := m.client.Complete(ctx, LLMRequest{
		Model:       m.model,
		System:      []string{matcherSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: m.matchingPrompt(req)}},
		MaxTokens:   1200,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("assist: matching completion failed: %w", err)
	}

	var reply matcherReply
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &reply); err != nil {
		m.logger.Warn("matcher returned unparseable reply",
			"session_id", req.SessionID,
			"error", err,
		)
		return nil, fmt.Errorf("assist: decode matcher reply: %w", err)
	}

	// Drop hallucinated ids; keep the model's ordering for the rest.
	known := make(map[string]struct{}, len(req.Candidates))
	for _, c := range req.Candidates {
		known[c.Dentist.ID] = struct{}{}
	}
	matches := reply.MatchedDentists[:0]
	for _, match := range reply.MatchedDentists {
		if _, ok := known[match.DentistID]; !ok {
			m.logger.Warn("matcher referenced unknown dentist id",
				"session_id", req.SessionID,
				"dentist_id", match.DentistID,
			)
			continue
		}
		matches = append(matches, match)
	}
	if len(matches) == 0 {
		return nil, errors.New("assist: matcher returned no usable matches")
	}

	return &MatchResponse{Matches: matches}, nil
}

func (m *LLMMatcher) matchingPrompt(req MatchRequest) string {
	var sb strings.Builder
	sb.WriteString("Patient clinical picture:\n")
	if len(req.Symptoms) == 0 {
		sb.WriteString("- no symptoms recorded\n")
	}
	for _, s := range req.Symptoms {
		fmt.Fprintf(&sb, "- %s (%s)\n", s.Text, s.Category)
	}
	fmt.Fprintf(&sb, "Urgency score: %d/10\n\n", req.UrgencyScore)

	sb.WriteString("Candidate roster:\n")
	for _, c := range req.Candidates {
		fmt.Fprintf(&sb, "- id=%s name=%q experience=%dy", c.Dentist.ID, c.Dentist.Name, c.Dentist.YearsExperience)
		if len(c.Specializations) > 0 {
			fmt.Fprintf(&sb, " specializations=%s", strings.Join(c.Specializations, ", "))
		}
		if len(c.Dentist.Languages) > 0 {
			fmt.Fprintf(&sb, " languages=%s", strings.Join(c.Dentist.Languages, ", "))
		}
		if c.Dentist.NextAvailable != nil {
			fmt.Fprintf(&sb, " next_available=%s", c.Dentist.NextAvailable.Format(time.RFC3339))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
