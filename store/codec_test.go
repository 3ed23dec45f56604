package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsecho/models"
)

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Action
	}{
		{"toggle layer", `{"type":"TOGGLE_LAYER","payload":"heatmap"}`, ToggleLayer{Layer: "heatmap"}},
		{"select incidents", `{"type":"SELECT_INCIDENTS","payload":["incident_3"]}`, SelectIncidents{IDs: []string{"incident_3"}}},
		{"no payload", `{"type":"TOGGLE_RIGHT_PANEL"}`, ToggleRightPanel{}},
		{"loading", `{"type":"SET_LOADING","payload":{"section":"chat","loading":true}}`, SetLoading{Section: "chat", Loading: true}},
		{"filters", `{"type":"SET_FILTERS","payload":{"sites":["Manifa Field"]}}`, SetFilters{Sites: []string{"Manifa Field"}}},
		{"transition", `{"type":"TRANSITION_INCIDENT","payload":{"id":"incident_1","status":"resolved","at":"2026-05-10T12:00:00Z"}}`,
			TransitionIncident{ID: "incident_1", Status: models.StatusResolved, At: testNow}},
		{"unknown tag", `{"type":"FUTURE_THING","payload":{"x":1}}`, Unknown{Tag: "FUTURE_THING"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAction([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeAction_Errors(t *testing.T) {
	_, err := DecodeAction([]byte(`{"payload":1}`))
	assert.True(t, errors.Is(err, ErrMissingType))

	_, err = DecodeAction([]byte(`{"type":"SET_LIVE_MODE","payload":"yes"}`))
	assert.Error(t, err)

	_, err = DecodeAction([]byte(`not json`))
	assert.Error(t, err)
}
