package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"opsecho/kafka"
	"opsecho/logger"
	"opsecho/mockdata"
	"opsecho/models"
)

// SensorSimulator publishes synthetic readings for the generated telemetry channels
type SensorSimulator struct {
	producer  sarama.SyncProducer
	topic     string
	frequency time.Duration
	faultRate float64
	rng       *rand.Rand
	channels  []models.TelemetryChannel
	logger    *zap.Logger
}

// NewSensorSimulator creates a simulator for the channels of a snapshot generated with seed
func NewSensorSimulator(brokers []string, topic string, seed int64, frequency time.Duration, log *zap.Logger) (*SensorSimulator, error) {
	config := sarama.NewConfig()
	config.ClientID = "opsecho-sensor-simulator"
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Retry.Backoff = 100 * time.Millisecond
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return newSimulator(producer, topic, seed, frequency, log), nil
}

func newSimulator(producer sarama.SyncProducer, topic string, seed int64, frequency time.Duration, log *zap.Logger) *SensorSimulator {
	snap := mockdata.New(seed).Generate(time.Now())
	return &SensorSimulator{
		producer:  producer,
		topic:     topic,
		frequency: frequency,
		faultRate: 0.02, // 2% fault probability per reading
		rng:       rand.New(rand.NewSource(seed + 1)),
		channels:  snap.TelemetryChannels,
		logger:    log,
	}
}

// nextReading walks the channel value and occasionally pushes it past the critical threshold
func (s *SensorSimulator) nextReading(ch *models.TelemetryChannel, now time.Time) models.TelemetryReading {
	span := ch.MaxValue - ch.MinValue
	value := ch.CurrentValue + (s.rng.Float64()-0.5)*span*0.02

	quality := "good"
	if s.rng.Float64() < s.faultRate {
		if ch.CriticalThreshold != nil {
			value = *ch.CriticalThreshold + s.rng.Float64()*(ch.MaxValue-*ch.CriticalThreshold)
		}
		quality = "uncertain"
	} else if s.rng.Float64() < 0.05 {
		quality = "poor"
	}

	// drift back below warning so channels do not stay anomalous
	if ch.WarningThreshold != nil && ch.CurrentValue >= *ch.WarningThreshold && quality == "good" {
		value = ch.CurrentValue - span*0.05
	}

	value = clamp(value, ch.MinValue, ch.MaxValue)
	ch.CurrentValue = value
	return models.TelemetryReading{
		ChannelID: ch.ID,
		Timestamp: now,
		Value:     value,
		Quality:   quality,
	}
}

// messages builds one Kafka message per channel for a tick
func (s *SensorSimulator) messages(now time.Time) ([]*sarama.ProducerMessage, error) {
	msgs := make([]*sarama.ProducerMessage, 0, len(s.channels))
	for i := range s.channels {
		reading := s.nextReading(&s.channels[i], now)
		payload, err := json.Marshal(reading)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal reading: %w", err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: s.topic,
			Key:   sarama.StringEncoder(reading.ChannelID),
			Value: sarama.ByteEncoder(payload),
			Headers: []sarama.RecordHeader{
				{Key: []byte("machine_id"), Value: []byte(s.channels[i].MachineID)},
				{Key: []byte("quality"), Value: []byte(reading.Quality)},
			},
		})
	}
	return msgs, nil
}

// publish sends a tick worth of readings
func (s *SensorSimulator) publish(now time.Time) error {
	msgs, err := s.messages(now)
	if err != nil {
		return err
	}
	if err := s.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("delivery failed: %w", err)
	}
	s.logger.Debug("readings delivered", zap.String("topic", s.topic), zap.Int("count", len(msgs)))
	return nil
}

// Start runs the simulation loop until SIGINT or SIGTERM
func (s *SensorSimulator) Start() {
	s.logger.Info("starting sensor simulator",
		zap.Int("channels", len(s.channels)),
		zap.Duration("frequency", s.frequency))

	ticker := time.NewTicker(s.frequency)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case now := <-ticker.C:
			if err := s.publish(now); err != nil {
				s.logger.Warn("error publishing readings", zap.Error(err))
			}
		case sig := <-sigChan:
			s.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
			s.Close()
			return
		}
	}
}

// Close shuts down the producer
func (s *SensorSimulator) Close() {
	if err := s.producer.Close(); err != nil {
		s.logger.Warn("failed to close producer", zap.Error(err))
	}
}

// clamp constrains a value between min and max
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	envErr := godotenv.Load()

	log, err := logger.New(getEnvOrDefault("LOG_LEVEL", "info"), getEnvOrDefault("LOG_FORMAT", "json"), "sensor-simulator")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	if envErr != nil {
		log.Info("no .env file found, using environment variables")
	}

	brokers := strings.Split(getEnvOrDefault("KAFKA_BROKERS", "localhost:9092"), ",")
	topic := getEnvOrDefault("KAFKA_TOPIC", kafka.DefaultTopic)

	seed, err := strconv.ParseInt(getEnvOrDefault("DATA_SEED", "42"), 10, 64)
	if err != nil {
		log.Fatal("invalid data seed", zap.Error(err))
	}
	frequencyMs, err := strconv.Atoi(getEnvOrDefault("SENSOR_FREQUENCY", "1000"))
	if err != nil {
		log.Fatal("invalid sensor frequency", zap.Error(err))
	}

	log.Info("configuration",
		zap.Strings("brokers", brokers),
		zap.String("topic", topic),
		zap.Int64("seed", seed),
		zap.Int("frequency_ms", frequencyMs))

	simulator, err := NewSensorSimulator(brokers, topic, seed, time.Duration(frequencyMs)*time.Millisecond, log)
	if err != nil {
		log.Fatal("failed to create sensor simulator", zap.Error(err))
	}

	simulator.Start()
}
