package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDecodeReading(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{"valid", `{"channelId":"machine_0_1_pressure","timestamp":"2026-05-10T12:00:00Z","value":42.5,"quality":"good"}`, ""},
		{"not json", `pressure=42`, "failed to unmarshal"},
		{"missing channel", `{"timestamp":"2026-05-10T12:00:00Z","value":1,"quality":"good"}`, "channelId is required"},
		{"missing timestamp", `{"channelId":"c","value":1,"quality":"good"}`, "timestamp is required"},
		{"unknown quality", `{"channelId":"c","timestamp":"2026-05-10T12:00:00Z","value":1,"quality":"great"}`, "invalid quality"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading, err := DecodeReading([]byte(tt.payload))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "machine_0_1_pressure", reading.ChannelID)
			assert.Equal(t, 42.5, reading.Value)
			assert.Equal(t, time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC), reading.Timestamp.UTC())
		})
	}
}

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func TestConsumeClaim_DeliversValidReadings(t *testing.T) {
	c := newConsumer(nil, []string{DefaultTopic}, zap.NewNop())
	session := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 2)}

	claim.messages <- &sarama.ConsumerMessage{Topic: DefaultTopic, Offset: 1, Value: []byte(`{"channelId":"a","timestamp":"2026-05-10T12:00:00Z","value":3,"quality":"poor"}`)}
	claim.messages <- &sarama.ConsumerMessage{Topic: DefaultTopic, Offset: 2, Value: []byte(`{}`)}
	close(claim.messages)

	require.NoError(t, c.ConsumeClaim(session, claim))

	// invalid messages are still marked so they are not redelivered
	assert.Equal(t, []int64{1, 2}, session.marked)
	require.Len(t, c.readings, 1)
	reading := <-c.Readings()
	assert.Equal(t, "a", reading.ChannelID)
	assert.Equal(t, "poor", reading.Quality)
}

func TestConsumeClaim_StopsOnSessionEnd(t *testing.T) {
	c := newConsumer(nil, []string{DefaultTopic}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.ConsumeClaim(&fakeSession{ctx: ctx}, &fakeClaim{messages: make(chan *sarama.ConsumerMessage)})
	assert.NoError(t, err)
}

func TestNewConfig(t *testing.T) {
	config := NewConfig("opsecho-test")
	assert.Equal(t, sarama.OffsetNewest, config.Consumer.Offsets.Initial)
	assert.True(t, config.Consumer.Return.Errors)
	assert.NoError(t, config.Validate())
}
