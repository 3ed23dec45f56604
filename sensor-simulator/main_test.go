package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"opsecho/kafka"
	"opsecho/models"
)

func TestNextReading_StaysInBounds(t *testing.T) {
	sim := newSimulator(nil, kafka.DefaultTopic, 7, time.Second, zap.NewNop())
	sim.faultRate = 0.5
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	ch := sim.channels[0]
	for i := 0; i < 500; i++ {
		r := sim.nextReading(&ch, now)
		require.GreaterOrEqual(t, r.Value, ch.MinValue)
		require.LessOrEqual(t, r.Value, ch.MaxValue)
		require.Contains(t, []string{"good", "poor", "uncertain"}, r.Quality)
		assert.Equal(t, ch.ID, r.ChannelID)
	}
}

func TestPublish_SendsOneMessagePerChannel(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	sim := newSimulator(producer, kafka.DefaultTopic, 7, time.Second, zap.NewNop())
	require.NotEmpty(t, sim.channels)

	var first []byte
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		var err error
		first, err = msg.Value.Encode()
		return err
	})
	for i := 1; i < len(sim.channels); i++ {
		producer.ExpectSendMessageAndSucceed()
	}

	require.NoError(t, sim.publish(time.Now()))
	require.NoError(t, producer.Close())

	reading, err := kafka.DecodeReading(first)
	require.NoError(t, err)
	assert.Equal(t, sim.channels[0].ID, reading.ChannelID)
}

func TestMessages_KeyedByChannel(t *testing.T) {
	sim := newSimulator(nil, "topic", 7, time.Second, zap.NewNop())
	msgs, err := sim.messages(time.Now())
	require.NoError(t, err)
	require.Len(t, msgs, len(sim.channels))

	key, err := msgs[3].Key.Encode()
	require.NoError(t, err)
	assert.Equal(t, sim.channels[3].ID, string(key))

	payload, err := msgs[3].Value.Encode()
	require.NoError(t, err)
	var reading models.TelemetryReading
	require.NoError(t, json.Unmarshal(payload, &reading))
	assert.Equal(t, sim.channels[3].CurrentValue, reading.Value)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-1, 0, 10))
	assert.Equal(t, 10.0, clamp(11, 0, 10))
	assert.Equal(t, 5.0, clamp(5, 0, 10))
}
