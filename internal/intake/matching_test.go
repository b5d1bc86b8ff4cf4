package intake

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dentalstack/intake-platform/internal/assist"
	"github.com/dentalstack/intake-platform/internal/dentists"
)

func seedRoster(env *testEnv, businessID string, ids ...string) {
	next := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for _, id := range ids {
		env.roster.Put(dentists.Dentist{
			ID:            id,
			BusinessID:    businessID,
			Name:          "Dr. " + id,
			Active:        true,
			NextAvailable: &next,
		}, []string{"general", "endodontics"})
	}
}

func TestPerformDentistMatchingPreservesBackendOrder(t *testing.T) {
	env := newTestEnv(t)
	session := env.mustCreateSession(t, "biz-1")
	seedRoster(env, "biz-1", "dent-a", "dent-b", "dent-c")

	env.matcher.resp = &assist.MatchResponse{Matches: []assist.MatchedDentist{
		{DentistID: "dent-c", Score: 0.91, Reasoning: "endodontics fit", Highlights: []string{"root canal"}, SpecializationScore: 0.95},
		{DentistID: "dent-a", Score: 0.77, Reasoning: "general fit", SpecializationScore: 0.6},
		{DentistID: "dent-b", Score: 0.52, Reasoning: "available soon", SpecializationScore: 0.4},
	}}

	result, err := env.service.PerformDentistMatching(context.Background(), session.SessionID)
	if err != nil {
		t.Fatalf("PerformDentistMatching: %v", err)
	}

	wantOrder := []string{"dent-c", "dent-a", "dent-b"}
	if !reflect.DeepEqual(result.MatchedDentistIDs, wantOrder) {
		t.Errorf("order = %v, want backend order %v", result.MatchedDentistIDs, wantOrder)
	}
	if len(result.Reasoning) != 3 {
		t.Fatalf("reasoning entries = %d, want 3", len(result.Reasoning))
	}
	top := result.Reasoning[0]
	if top.DentistID != "dent-c" || top.Score != 0.91 {
		t.Errorf("top entry = %+v, want dent-c scored 0.91", top)
	}
	if len(top.Specialization.Specializations) == 0 {
		t.Error("specialization detail missing from reasoning")
	}
	if top.Availability.EarliestSlot == nil {
		t.Error("availability summary missing earliest slot")
	}

	stored, _ := env.store.Get(context.Background(), session.SessionID)
	if stored.Status != StatusMatchingDentist {
		t.Errorf("status = %s, want %s", stored.Status, StatusMatchingDentist)
	}
	if !reflect.DeepEqual(stored.MatchedDentistIDs, wantOrder) {
		t.Errorf("persisted order = %v, want %v", stored.MatchedDentistIDs, wantOrder)
	}
	if !stored.AlternativeDentistsShown {
		t.Error("alternative_dentists_shown not set with multiple matches")
	}
}

func TestPerformDentistMatchingEmptyRoster(t *testing.T) {
	env := newTestEnv(t)
	session := env.mustCreateSession(t, "biz-1")

	before, _ := env.store.Get(context.Background(), session.SessionID)

	result, err := env.service.PerformDentistMatching(context.Background(), session.SessionID)
	if !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("err = %v, want ErrEmptyRoster", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil on empty roster", result)
	}
	if env.matcher.calls != 0 {
		t.Errorf("matcher called %d times with no candidates", env.matcher.calls)
	}

	after, _ := env.store.Get(context.Background(), session.SessionID)
	if !reflect.DeepEqual(before, after) {
		t.Error("session changed despite empty-roster failure")
	}
}

func TestPerformDentistMatchingDefaultsUrgency(t *testing.T) {
	env := newTestEnv(t)
	session := env.mustCreateSession(t, "biz-1")
	seedRoster(env, "biz-1", "dent-a")

	env.matcher.resp = &assist.MatchResponse{Matches: []assist.MatchedDentist{
		{DentistID: "dent-a", Score: 0.5},
	}}

	if _, err := env.service.PerformDentistMatching(context.Background(), session.SessionID); err != nil {
		t.Fatalf("PerformDentistMatching: %v", err)
	}
	if env.matcher.last.UrgencyScore != defaultUrgencyScore {
		t.Errorf("urgency sent = %d, want default %d", env.matcher.last.UrgencyScore, defaultUrgencyScore)
	}

	stored, _ := env.store.Get(context.Background(), session.SessionID)
	if stored.AlternativeDentistsShown {
		t.Error("alternative_dentists_shown set with a single match")
	}
}

func TestPerformDentistMatchingBackendFailure(t *testing.T) {
	env := newTestEnv(t)
	session := env.mustCreateSession(t, "biz-1")
	seedRoster(env, "biz-1", "dent-a")
	env.matcher.err = errors.New("bedrock throttled")

	before, _ := env.store.Get(context.Background(), session.SessionID)
	if _, err := env.service.PerformDentistMatching(context.Background(), session.SessionID); err == nil {
		t.Fatal("expected error from matching backend")
	}
	after, _ := env.store.Get(context.Background(), session.SessionID)
	if !reflect.DeepEqual(before, after) {
		t.Error("session changed despite failed matching call")
	}
}
