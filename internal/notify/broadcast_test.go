package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent    []int64
	failFor map[int64]bool
}

func (f *fakeSender) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	id := params.ChatID.ID
	if f.failFor[id] {
		return nil, errors.New("Forbidden: bot was blocked by the user")
	}
	f.sent = append(f.sent, id)
	return &telego.Message{}, nil
}

func TestBroadcastCountsFailures(t *testing.T) {
	sender := &fakeSender{failFor: map[int64]bool{2: true}}
	b := NewBroadcaster(sender, zap.NewNop().Sugar())

	report := b.Send(context.Background(), []int64{1, 2, 3}, "bonjour")

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Success)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []int64{1, 3}, sender.sent)
}

func TestBroadcastEmptyRecipientList(t *testing.T) {
	sender := &fakeSender{}
	b := NewBroadcaster(sender, zap.NewNop().Sugar())

	report := b.Send(context.Background(), nil, "bonjour")
	assert.Zero(t, report.Total)
	assert.Zero(t, report.Success)
	assert.Zero(t, report.Failed)
}

func TestBroadcastStopsOnCancel(t *testing.T) {
	sender := &fakeSender{}
	b := NewBroadcaster(sender, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := b.Send(ctx, []int64{1, 2, 3}, "bonjour")
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, report.Total, report.Success+report.Failed)
}
