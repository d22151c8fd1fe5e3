package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "habitat/pkg/domain"
	audit "habitat/pkg/platform/audit"
	"habitat/pkg/platform/audit/store/memory"
	"habitat/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }

func TestEmit(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-42")
	reqID := id.RequestID(uuid.New())

	t.Run("persists with defaults filled", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		m := NewMetrics(prometheus.NewRegistry())
		pub := New(store, WithMetrics(m))

		err := pub.Emit(ctx, audit.Event{VotingRequestID: reqID, Action: string(audit.EventVotingRequestApproved)})
		require.NoError(t, err)

		events, err := store.ListByVotingRequest(ctx, reqID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, now, events[0].Timestamp)
		assert.Equal(t, "req-42", events[0].RequestID)
		assert.Equal(t, audit.CategoryCompliance, events[0].Category)
		assert.InDelta(t, 1, testutil.ToFloat64(m.EventsEmitted.WithLabelValues("compliance")), 0)
	})

	t.Run("rejects incomplete events", func(t *testing.T) {
		pub := New(memory.NewInMemoryStore())
		require.Error(t, pub.Emit(ctx, audit.Event{Action: "vote_cast"}))
		require.Error(t, pub.Emit(ctx, audit.Event{VotingRequestID: reqID}))
	})

	t.Run("fails closed", func(t *testing.T) {
		m := NewMetrics(prometheus.NewRegistry())
		pub := New(failingStore{}, WithMetrics(m))
		err := pub.Emit(ctx, audit.Event{VotingRequestID: reqID, Action: string(audit.EventVoteCast)})
		require.Error(t, err)
		assert.InDelta(t, 1, testutil.ToFloat64(m.PersistFailures), 0)
	})
}
