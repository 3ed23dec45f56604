package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"opsecho/models"
)

// DataSource produces a complete dataset for the dashboard
type DataSource interface {
	Name() string
	Load(ctx context.Context) (*models.Snapshot, error)
}

// StageDelays staggers the initial population of each section
type StageDelays struct {
	Incidents time.Duration
	Machines  time.Duration
	Humans    time.Duration
	Telemetry time.Duration
	Chat      time.Duration
}

// DefaultStageDelays mirrors the staggered start of the dashboard panels
var DefaultStageDelays = StageDelays{
	Incidents: 500 * time.Millisecond,
	Machines:  600 * time.Millisecond,
	Humans:    700 * time.Millisecond,
	Telemetry: 800 * time.Millisecond,
	Chat:      900 * time.Millisecond,
}

type stage struct {
	delay   time.Duration
	actions []Action
}

// Load fetches a snapshot from source and populates store section by section.
// Each section's loading flag is raised first and cleared once its data has landed.
// Cancelling ctx stops the pending stages.
func Load(ctx context.Context, s *Store, source DataSource, delays StageDelays, now func() time.Time, logger *zap.Logger) error {
	sections := []string{SectionIncidents, SectionHumans, SectionMachines, SectionTelemetry, SectionChat}
	for _, section := range sections {
		if _, err := s.Dispatch(ctx, SetLoading{Section: section, Loading: true}); err != nil {
			return err
		}
	}

	snap, err := source.Load(ctx)
	if err != nil {
		logger.Error("failed to load data", zap.String("source", source.Name()), zap.Error(err))
		if _, derr := s.Dispatch(ctx, SetError{Section: SectionIncidents, Error: "Failed to load data"}); derr != nil {
			return derr
		}
		for _, section := range sections {
			if _, derr := s.Dispatch(ctx, SetLoading{Section: section, Loading: false}); derr != nil {
				return derr
			}
		}
		return fmt.Errorf("failed to load from %s: %w", source.Name(), err)
	}

	stages := []stage{
		{delays.Incidents, []Action{
			SetIncidents{Incidents: models.RefreshIncidents(snap.Incidents, now())},
			SetLoading{Section: SectionIncidents},
		}},
		{delays.Humans, []Action{
			SetHumans{Humans: snap.Humans},
			SetLoading{Section: SectionHumans},
		}},
		{delays.Machines, []Action{
			SetMachines{Machines: snap.Machines},
			SetLoading{Section: SectionMachines},
		}},
		{delays.Telemetry, []Action{
			SetTelemetryChannels{Channels: snap.TelemetryChannels},
			SetLoading{Section: SectionTelemetry},
		}},
		{delays.Chat, []Action{
			SetChatThreads{Threads: snap.ChatThreads},
			SetChatMessages{Messages: snap.ChatMessages},
			SetInteractions{Interactions: snap.HumanMachineInteractions},
			SetStatistics{Statistics: snap.Statistics},
			SetLoading{Section: SectionChat},
		}},
	}
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].delay < stages[j].delay })

	start := time.Now()
	for _, st := range stages {
		if wait := st.delay - time.Since(start); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		for _, action := range st.actions {
			if _, err := s.Dispatch(ctx, action); err != nil {
				return err
			}
		}
	}

	if _, err := s.Dispatch(ctx, SetLastUpdate{At: now()}); err != nil {
		return err
	}

	logger.Info("initial data loaded",
		zap.String("source", source.Name()),
		zap.Int("incidents", len(snap.Incidents)),
		zap.Int("machines", len(snap.Machines)),
		zap.Int("channels", len(snap.TelemetryChannels)))
	return nil
}
