package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	pending   [][]redis.XMessage
	fresh     []redis.XMessage
	claims    []*redis.XAutoClaimArgs
	acked     []string
	reads     int
	afterRead func()
}

func (f *fakeStream) XGroupCreateMkStream(ctx context.Context, _, _, _ string) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetErr(errors.New("BUSYGROUP Consumer Group name already exists"))
	return cmd
}

func (f *fakeStream) XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd {
	f.claims = append(f.claims, a)
	cmd := redis.NewXAutoClaimCmd(ctx)
	if len(f.pending) == 0 {
		cmd.SetVal(nil, "0-0")
		return cmd
	}
	page := f.pending[0]
	f.pending = f.pending[1:]
	next := "0-0"
	if len(f.pending) > 0 {
		next = page[len(page)-1].ID
	}
	cmd.SetVal(page, next)
	return cmd
}

func (f *fakeStream) XReadGroup(ctx context.Context, _ *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	f.reads++
	cmd := redis.NewXStreamSliceCmd(ctx)
	if f.afterRead != nil {
		defer f.afterRead()
	}
	if len(f.fresh) == 0 {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal([]redis.XStream{{Stream: CustomerEventsStream, Messages: f.fresh}})
	f.fresh = nil
	return cmd
}

func (f *fakeStream) XAck(ctx context.Context, _, _ string, ids ...string) *redis.IntCmd {
	f.acked = append(f.acked, ids...)
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(ids)))
	return cmd
}

func streamMessage(t *testing.T, id string, custID int64) redis.XMessage {
	t.Helper()
	raw, err := json.Marshal(NewEvent(AccountProvisioned, AccountProvisionedEvent{CustID: custID, AccNo: 100000000000 + custID}))
	require.NoError(t, err)
	return redis.XMessage{ID: id, Values: map[string]any{"event": string(raw), "type": AccountProvisioned}}
}

func TestSubscriberReclaimsPendingBeforeReading(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := &fakeStream{
		pending: [][]redis.XMessage{
			{streamMessage(t, "1-0", 1), streamMessage(t, "2-0", 2)},
			{streamMessage(t, "3-0", 3)},
		},
		fresh:     []redis.XMessage{streamMessage(t, "4-0", 4)},
		afterRead: cancel,
	}

	var handled []int64
	handler := func(_ context.Context, event Event) error {
		var data AccountProvisionedEvent
		require.NoError(t, DecodeData(event, &data))
		handled = append(handled, data.CustID)
		if data.CustID == 2 {
			return errors.New("cache unavailable")
		}
		return nil
	}

	sub := NewSubscriber(stream, SubscriberConfig{
		Group:        "ledger-service-group",
		Consumer:     "host-2",
		Stream:       CustomerEventsStream,
		Handler:      handler,
		ClaimMinIdle: 30 * time.Second,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	err := sub.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []int64{1, 2, 3, 4}, handled)
	assert.Equal(t, []string{"1-0", "3-0", "4-0"}, stream.acked, "failed message stays pending")
	require.Len(t, stream.claims, 2)
	assert.Equal(t, "0-0", stream.claims[0].Start)
	assert.Equal(t, "2-0", stream.claims[1].Start)
	assert.Equal(t, "host-2", stream.claims[0].Consumer)
	assert.Equal(t, 30*time.Second, stream.claims[0].MinIdle)
	assert.Equal(t, 1, stream.reads)
}

func TestSubscriberStopsOnGroupCreateFailure(t *testing.T) {
	sub := NewSubscriber(&failingGroupStream{}, SubscriberConfig{
		Stream:  CustomerEventsStream,
		Handler: func(context.Context, Event) error { return nil },
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	err := sub.Start(context.Background())
	assert.ErrorContains(t, err, "failed to create consumer group")
}

type failingGroupStream struct{ fakeStream }

func (f *failingGroupStream) XGroupCreateMkStream(ctx context.Context, _, _, _ string) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetErr(errors.New("NOPERM"))
	return cmd
}
