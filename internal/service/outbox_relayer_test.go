package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"UEvents/internal/model"
)

type fakeOutbox struct {
	rows map[uint64]*model.Outbox
}

func newFakeOutbox(types ...string) *fakeOutbox {
	f := &fakeOutbox{rows: map[uint64]*model.Outbox{}}
	for i, typ := range types {
		id := uint64(i + 1)
		f.rows[id] = &model.Outbox{ID: id, EventType: typ, AggregateID: typ + "-agg", Payload: "{}"}
	}
	return f
}

func (f *fakeOutbox) Pending(_ context.Context, batchSize, maxRetry int) ([]model.Outbox, error) {
	var out []model.Outbox
	for id := uint64(1); id <= uint64(len(f.rows)) && len(out) < batchSize; id++ {
		r := f.rows[id]
		if r.Status == model.OutboxPending || (r.Status == model.OutboxFailed && r.Retry < maxRetry) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkSent(_ context.Context, id uint64) error {
	f.rows[id].Status = model.OutboxSent
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id uint64) error {
	f.rows[id].Status = model.OutboxFailed
	f.rows[id].Retry++
	return nil
}

func TestOutboxRelayer_DrainOnce(t *testing.T) {
	repo := newFakeOutbox(model.TopicEventPublished, model.TopicEventDeleted)
	var keys []string
	var headers []string
	send := func(_ context.Context, key string, _ []byte, h map[string]string) error {
		if h["event_type"] == model.TopicEventDeleted {
			return errors.New("broker down")
		}
		keys = append(keys, key)
		headers = append(headers, h["event_type"])
		return nil
	}
	r := NewOutboxRelayer(repo, KafkaSender(send), RelayerConfig{MaxRetry: 2}, zap.NewNop())

	assert.Equal(t, 1, r.drainOnce(context.Background()))
	assert.Equal(t, []string{"event.published-agg"}, keys)
	assert.Equal(t, []string{model.TopicEventPublished}, headers)
	assert.Equal(t, model.OutboxSent, repo.rows[1].Status)
	assert.Equal(t, model.OutboxFailed, repo.rows[2].Status)

	// failed rows are retried until the cap
	assert.Equal(t, 0, r.drainOnce(context.Background()))
	require.Equal(t, 2, repo.rows[2].Retry)
	assert.Equal(t, 0, r.drainOnce(context.Background()))
	assert.Equal(t, 2, repo.rows[2].Retry)
}

func TestOutboxRelayer_RunStopsOnCancel(t *testing.T) {
	repo := newFakeOutbox(model.TopicEventPublished)
	r := NewOutboxRelayer(repo, LogSender(zap.NewNop()), RelayerConfig{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Run(ctx)
	assert.Equal(t, model.OutboxPending, repo.rows[1].Status)
}
