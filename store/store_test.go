package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"opsecho/models"
)

func runStore(t *testing.T) (*Store, context.CancelFunc) {
	t.Helper()
	s := New(InitialState(testNow), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(cancel)
	return s, cancel
}

func TestStore_DispatchAppliesSynchronously(t *testing.T) {
	s, _ := runStore(t)
	ctx := context.Background()

	st, err := s.Dispatch(ctx, SelectIncidents{IDs: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, st.SelectedIncidentIDs)
	assert.Equal(t, []string{"a"}, s.State().SelectedIncidentIDs)

	_, err = s.Dispatch(ctx, SelectIncidents{IDs: []string{"b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, s.State().SelectedIncidentIDs)
}

func TestStore_ConcurrentDispatchesAreSerialized(t *testing.T) {
	s, _ := runStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Dispatch(ctx, AddIncident{Incident: models.Incident{ID: fmt.Sprintf("incident_%d", i)}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.State().Incidents, 50, "no lost updates")
}

func TestStore_SubscribersSeeEveryChange(t *testing.T) {
	s, _ := runStore(t)
	changes, cancel := s.Subscribe(8)
	defer cancel()

	_, err := s.Dispatch(context.Background(), ToggleLayer{Layer: "weather"})
	require.NoError(t, err)

	select {
	case c := <-changes:
		assert.Equal(t, "TOGGLE_LAYER", c.Action.Type())
		assert.Contains(t, c.State.SelectedLayers, "weather")
	case <-time.After(time.Second):
		t.Fatal("no change published")
	}
}

func TestStore_DispatchAfterStop(t *testing.T) {
	s, cancel := runStore(t)
	cancel()

	require.Eventually(t, func() bool {
		_, err := s.Dispatch(context.Background(), ClearErrors{})
		return errors.Is(err, ErrStopped)
	}, time.Second, 10*time.Millisecond)
}

func TestStore_ConcurrentTransitionsStayForward(t *testing.T) {
	s, _ := runStore(t)
	ctx := context.Background()

	for round := 0; round < 50; round++ {
		id := fmt.Sprintf("incident_%d", round)
		_, err := s.Dispatch(ctx, AddIncident{Incident: models.Incident{ID: id, Status: models.StatusOpen}})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for _, status := range []models.IncidentStatus{models.StatusResolved, models.StatusAcknowledged} {
			wg.Add(1)
			go func(status models.IncidentStatus) {
				defer wg.Done()
				_, err := s.Dispatch(ctx, TransitionIncident{ID: id, Status: status, At: testNow})
				assert.NoError(t, err)
			}(status)
		}
		wg.Wait()

		for _, incident := range s.State().Incidents {
			if incident.ID == id {
				assert.Equal(t, models.StatusResolved, incident.Status, id)
			}
		}
	}
}
