package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"message-room/domain/event"
)

func Test_Channel_Buffers_Events_In_Delivery_Order(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	channel := NewChannel(4)

	req.NoError(channel.Consume(ctx, event.UserJoined{Username: "alice"}))
	req.NoError(channel.Consume(ctx, event.UserCountUpdated{Count: 1}))

	first := <-channel.Events
	second := <-channel.Events
	req.Equal("alice", first.(event.UserJoined).Username)
	req.Equal(1, second.(event.UserCountUpdated).Count)
}

func Test_Channel_Drops_When_The_Buffer_Is_Full(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	channel := NewChannel(1)

	req.NoError(channel.Consume(ctx, event.UserCountUpdated{Count: 1}))
	// The second event cannot block the broadcaster
	req.NoError(channel.Consume(ctx, event.UserCountUpdated{Count: 2}))

	req.Equal(1, (<-channel.Events).(event.UserCountUpdated).Count)
	req.Empty(channel.Events)
}

func Test_Timeline_Records_Messages_Only(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	timeline := NewTimeline("alice")

	req.NoError(timeline.Consume(ctx, event.UserJoined{Username: "bob"}))
	req.NoError(timeline.Consume(ctx, event.MessageReceived{ID: 1, Username: "bob", Content: "hi"}))
	req.NoError(timeline.Consume(ctx, event.MessageReceived{ID: 2, Username: "bob", Content: "there"}))

	messages := timeline.Snapshot()
	req.Len(messages, 2)
	req.Equal(uint64(1), messages[0].ID)
	req.Equal("there", messages[1].Content)
}
