package repository

import (
	"context"
	"testing"

	"parentyn-backend/internal/models"
	"parentyn-backend/internal/notify"
	"parentyn-backend/internal/store"
)

func newAnalyticsRepo(t *testing.T) (*AnalyticsRepo, *notify.Bus) {
	t.Helper()
	bus := notify.NewBus()
	return NewAnalyticsRepo(store.NewMemoryStore(), bus), bus
}

func recordAll(t *testing.T, repo *AnalyticsRepo, wrongTopics ...[]string) {
	t.Helper()
	for _, topics := range wrongTopics {
		err := repo.Record(context.Background(), models.CBTResult{
			StudentName: "Bob",
			ModuleID:    "mod_1",
			WrongTopics: topics,
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
}

func TestWeakTopicsRanking(t *testing.T) {
	repo, _ := newAnalyticsRepo(t)

	recordAll(t, repo,
		[]string{"algebra"},
		[]string{"algebra", "fractions"},
		[]string{"fractions"},
		[]string{""},
	)

	topics := repo.WeakTopics(context.Background())
	if len(topics) != 2 {
		t.Fatalf("Expected 2 topics, got %v", topics)
	}
	// Equal counts keep first-encountered order: algebra before fractions.
	if topics[0].Topic != "algebra" || topics[0].Count != 2 {
		t.Errorf("Expected (algebra,2) first, got %+v", topics[0])
	}
	if topics[1].Topic != "fractions" || topics[1].Count != 2 {
		t.Errorf("Expected (fractions,2) second, got %+v", topics[1])
	}
}

func TestWeakTopicsBlanksAndWhitespace(t *testing.T) {
	repo, _ := newAnalyticsRepo(t)

	recordAll(t, repo,
		[]string{"", "   ", "geometry "},
		[]string{"geometry"},
	)

	topics := repo.WeakTopics(context.Background())
	if len(topics) != 1 {
		t.Fatalf("Expected blanks to be dropped, got %v", topics)
	}
	if topics[0].Topic != "geometry" || topics[0].Count != 2 {
		t.Errorf("Expected trimmed topics to merge to (geometry,2), got %+v", topics[0])
	}
}

func TestWeakTopicsTruncatesToFive(t *testing.T) {
	repo, _ := newAnalyticsRepo(t)

	recordAll(t, repo, []string{"a", "b", "c", "d", "e", "f", "g"})

	topics := repo.WeakTopics(context.Background())
	if len(topics) != 5 {
		t.Errorf("Expected top 5, got %d entries", len(topics))
	}
}

func TestRecordNotifiesAnalyticsTopic(t *testing.T) {
	repo, bus := newAnalyticsRepo(t)

	analyticsNotified := 0
	sessionNotified := 0
	defer bus.Subscribe(notify.TopicAnalytics, func() { analyticsNotified++ })()
	defer bus.Subscribe(notify.TopicSessions, func() { sessionNotified++ })()

	recordAll(t, repo, []string{"algebra"})

	if analyticsNotified != 1 {
		t.Errorf("Expected 1 analytics notification, got %d", analyticsNotified)
	}
	if sessionNotified != 0 {
		t.Errorf("Analytics writes must not touch the session topic, got %d", sessionNotified)
	}
}

func TestWeakTopicsMalformedStore(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	st.Set(ctx, store.ResultsKey, []byte("[{broken"))

	repo := NewAnalyticsRepo(st, notify.NewBus())
	if topics := repo.WeakTopics(ctx); len(topics) != 0 {
		t.Errorf("Corrupt store must read as empty, got %v", topics)
	}
}
