package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"opsecho/models"
	"opsecho/store"
)

// ErrUnknownChannel is returned for readings of a channel the store does not hold
var ErrUnknownChannel = errors.New("unknown telemetry channel")

// StateStore dispatches actions and exposes the latest state
type StateStore interface {
	Dispatcher
	State() store.State
}

// Broadcaster fans a typed message out to live clients
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

// TelemetryUpdate is broadcast for every accepted reading
type TelemetryUpdate struct {
	Reading models.TelemetryReading `json:"reading"`
	Channel models.TelemetryChannel `json:"channel"`
}

// TelemetryIngestor applies live readings to the store
type TelemetryIngestor struct {
	store       StateStore
	detector    *AnomalyDetector
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewTelemetryIngestor creates a new ingestor
func NewTelemetryIngestor(s StateStore, detector *AnomalyDetector, broadcaster Broadcaster, logger *zap.Logger) *TelemetryIngestor {
	return &TelemetryIngestor{
		store:       s,
		detector:    detector,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Run ingests readings until the channel closes or ctx is cancelled
func (t *TelemetryIngestor) Run(ctx context.Context, readings <-chan models.TelemetryReading) {
	for {
		select {
		case <-ctx.Done():
			return
		case reading, ok := <-readings:
			if !ok {
				return
			}
			if err := t.Ingest(ctx, reading); err != nil {
				if errors.Is(err, ErrUnknownChannel) {
					t.logger.Debug("skipping reading", zap.String("channel_id", reading.ChannelID))
					continue
				}
				t.logger.Error("failed to ingest reading", zap.String("channel_id", reading.ChannelID), zap.Error(err))
			}
		}
	}
}

// Ingest analyses one reading and stores the updated channel
func (t *TelemetryIngestor) Ingest(ctx context.Context, reading models.TelemetryReading) error {
	channel, ok := findChannel(t.store.State().TelemetryChannels, reading.ChannelID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, reading.ChannelID)
	}

	updated := t.detector.Analyze(channel, reading)
	if _, err := t.store.Dispatch(ctx, store.UpdateTelemetryChannel{Channel: updated}); err != nil {
		return fmt.Errorf("failed to update channel %s: %w", channel.ID, err)
	}

	if t.broadcaster != nil {
		t.broadcaster.Broadcast(models.MessageTelemetryData, TelemetryUpdate{Reading: reading, Channel: updated})
	}
	return nil
}

func findChannel(channels []models.TelemetryChannel, id string) (models.TelemetryChannel, bool) {
	for _, c := range channels {
		if c.ID == id {
			return c, true
		}
	}
	return models.TelemetryChannel{}, false
}
