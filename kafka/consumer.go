package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"opsecho/models"
)

// DefaultTopic carries TelemetryReading JSON documents keyed by channel id
const DefaultTopic = "opsecho.telemetry"

var validQualities = map[string]bool{
	"good":      true,
	"poor":      true,
	"uncertain": true,
	"bad":       true,
}

// Consumer reads telemetry readings from a Kafka consumer group
type Consumer struct {
	group    sarama.ConsumerGroup
	topics   []string
	readings chan models.TelemetryReading
	logger   *zap.Logger
}

// NewConfig returns the sarama configuration used by the consumer group
func NewConfig(clientID string) *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = clientID
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Offsets.AutoCommit.Enable = true
	config.Consumer.Return.Errors = true
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRange()}
	return config
}

// NewConsumer joins groupID on brokers
func NewConsumer(brokers []string, groupID string, topics []string, logger *zap.Logger) (*Consumer, error) {
	group, err := sarama.NewConsumerGroup(brokers, groupID, NewConfig("opsecho-"+groupID))
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}
	return newConsumer(group, topics, logger), nil
}

func newConsumer(group sarama.ConsumerGroup, topics []string, logger *zap.Logger) *Consumer {
	return &Consumer{
		group:    group,
		topics:   topics,
		readings: make(chan models.TelemetryReading, 100),
		logger:   logger,
	}
}

// Readings returns the channel of decoded readings; it is closed when the consumer stops
func (c *Consumer) Readings() <-chan models.TelemetryReading {
	return c.readings
}

// Start consumes until ctx is cancelled or the group is closed
func (c *Consumer) Start(ctx context.Context) {
	c.logger.Info("starting kafka consumer", zap.Strings("topics", c.topics))

	go func() {
		for err := range c.group.Errors() {
			c.logger.Warn("kafka consumer error", zap.Error(err))
		}
	}()

	go func() {
		defer close(c.readings)
		for {
			// Consume returns on every rebalance and has to be called again
			if err := c.group.Consume(ctx, c.topics, c); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.logger.Error("kafka consume failed", zap.Error(err))
			}
			if ctx.Err() != nil {
				c.logger.Info("stopping kafka consumer")
				return
			}
		}
	}()
}

// Setup is run at the beginning of a new session
func (c *Consumer) Setup(session sarama.ConsumerGroupSession) error {
	c.logger.Info("kafka session started", zap.String("member_id", session.MemberID()), zap.Int32("generation", session.GenerationID()))
	return nil
}

// Cleanup is run at the end of a session
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim decodes the messages of one partition claim
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			c.processMessage(session.Context(), msg)
			session.MarkMessage(msg, "")
		}
	}
}

// processMessage decodes one message and hands it to the readings channel
func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) {
	reading, err := DecodeReading(msg.Value)
	if err != nil {
		c.logger.Warn("dropping telemetry message",
			zap.String("topic", msg.Topic),
			zap.Int32("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return
	}

	select {
	case c.readings <- reading:
	case <-ctx.Done():
	}
}

// DecodeReading parses and validates a telemetry reading
func DecodeReading(value []byte) (models.TelemetryReading, error) {
	var reading models.TelemetryReading
	if err := json.Unmarshal(value, &reading); err != nil {
		return reading, fmt.Errorf("failed to unmarshal reading: %w", err)
	}
	if err := validateReading(reading); err != nil {
		return reading, fmt.Errorf("invalid reading: %w", err)
	}
	return reading, nil
}

func validateReading(reading models.TelemetryReading) error {
	if reading.ChannelID == "" {
		return errors.New("channelId is required")
	}
	if reading.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	if math.IsNaN(reading.Value) || math.IsInf(reading.Value, 0) {
		return fmt.Errorf("value is not finite: %v", reading.Value)
	}
	if !validQualities[reading.Quality] {
		return fmt.Errorf("invalid quality: %q", reading.Quality)
	}
	return nil
}

// Stop leaves the consumer group
func (c *Consumer) Stop() error {
	c.logger.Info("closing kafka consumer")
	return c.group.Close()
}
