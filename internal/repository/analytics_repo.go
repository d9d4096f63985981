package repository

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strings"
	"sync"

	"parentyn-backend/internal/models"
	"parentyn-backend/internal/notify"
	"parentyn-backend/internal/store"
)

// AnalyticsRepo accumulates CBT results in the durable store and derives
// the weak-topics ranking shown on the teacher dashboard. Results are
// append-only; notifications go out on a topic separate from sessions.
type AnalyticsRepo struct {
	store    store.Store
	notifier notify.Notifier
	mu       sync.Mutex
}

func NewAnalyticsRepo(st store.Store, notifier notify.Notifier) *AnalyticsRepo {
	return &AnalyticsRepo{store: st, notifier: notifier}
}

// Record appends one completed assessment attempt.
func (r *AnalyticsRepo) Record(ctx context.Context, result models.CBTResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := r.Results(ctx)
	results = append(results, result)

	raw, err := json.Marshal(results)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, store.ResultsKey, raw); err != nil {
		return err
	}
	r.notifier.Publish(ctx, notify.TopicAnalytics)
	return nil
}

// Results returns every recorded attempt. An absent or corrupt blob
// reads as empty.
func (r *AnalyticsRepo) Results(ctx context.Context) []models.CBTResult {
	raw, ok, err := r.store.Get(ctx, store.ResultsKey)
	if err != nil {
		log.Printf("analytics repo: store read failed: %v", err)
		return nil
	}
	if !ok {
		return nil
	}

	var results []models.CBTResult
	if err := json.Unmarshal(raw, &results); err != nil {
		log.Printf("analytics repo: discarding malformed results store: %v", err)
		return nil
	}
	return results
}

// WeakTopics folds all recorded wrong-topic lists into a frequency
// ranking: blanks dropped, descending by count, ties kept in
// first-encountered order, at most the top 5.
func (r *AnalyticsRepo) WeakTopics(ctx context.Context) []models.TopicCount {
	counts := make(map[string]int)
	var order []string

	for _, result := range r.Results(ctx) {
		for _, topic := range result.WrongTopics {
			topic = strings.TrimSpace(topic)
			if topic == "" {
				continue
			}
			if _, seen := counts[topic]; !seen {
				order = append(order, topic)
			}
			counts[topic]++
		}
	}

	ranked := make([]models.TopicCount, 0, len(order))
	for _, topic := range order {
		ranked = append(ranked, models.TopicCount{Topic: topic, Count: counts[topic]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	return ranked
}
