package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"UEvents/internal/model"
)

func TestOutboxRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewOutboxRepository(db)
	events := NewEventRepository(db)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, events.AppendOutbox(ctx, &model.Outbox{EventType: model.TopicEventPublished, AggregateID: id, Payload: "{}"}))
	}

	rows, err := repo.Pending(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "a", rows[0].AggregateID)

	require.NoError(t, repo.MarkSent(ctx, rows[0].ID))
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.MarkFailed(ctx, rows[1].ID))
	}
	require.NoError(t, repo.MarkFailed(ctx, rows[2].ID))

	rows, err = repo.Pending(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c", rows[0].AggregateID)
	assert.Equal(t, 1, rows[0].Retry)
}
