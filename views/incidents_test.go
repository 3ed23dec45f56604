package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsecho/models"
	"opsecho/store"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func incident(id string, sev models.Severity, status models.IncidentStatus, site string, age time.Duration) models.Incident {
	created := now.Add(-age)
	return models.Incident{
		ID:        id,
		Title:     "incident " + id,
		Severity:  sev,
		Status:    status,
		Site:      site,
		CreatedAt: created,
		UpdatedAt: created,
		SLA:       models.SLAFor(sev, created),
	}
}

func sampleIncidents() []models.Incident {
	return []models.Incident{
		incident("1", models.SeverityCritical, models.StatusOpen, "Ghawar Field", 2*time.Hour),
		incident("2", models.SeverityHigh, models.StatusAcknowledged, "Manifa Field", 30*time.Minute),
		incident("3", models.SeverityLow, models.StatusResolved, "Ghawar Field", 5*time.Hour),
		incident("4", models.SeverityInfo, models.StatusInvestigating, "Shaybah Field", 10*time.Minute),
		incident("5", models.SeverityMedium, models.StatusOpen, "Manifa Field", 48*time.Hour),
		incident("6", models.SeverityCritical, models.StatusClosed, "Shaybah Field", time.Hour),
	}
}

func allFilters() models.FilterState {
	return models.FilterState{
		TimeRange: models.TimeRange{Start: now.Add(-7 * 24 * time.Hour), End: now},
		Severity:  append([]models.Severity(nil), models.Severities...),
	}
}

func ids(incidents []models.Incident) []string {
	out := make([]string, 0, len(incidents))
	for _, i := range incidents {
		out = append(out, i.ID)
	}
	return out
}

func TestFilterIncidents_SeverityExcludesExactlyOthers(t *testing.T) {
	f := allFilters()
	f.Severity = []models.Severity{models.SeverityCritical, models.SeverityLow}

	got := FilterIncidents(sampleIncidents(), f)
	assert.Equal(t, []string{"1", "3", "6"}, ids(got))
}

func TestFilterIncidents_SeverityIsMonotonic(t *testing.T) {
	subsets := [][]models.Severity{
		{},
		{models.SeverityCritical},
		{models.SeverityCritical, models.SeverityHigh},
		{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium},
		models.Severities,
	}
	incidents := sampleIncidents()

	for i := 1; i < len(subsets); i++ {
		small, large := allFilters(), allFilters()
		small.Severity, large.Severity = subsets[i-1], subsets[i]

		smaller := ids(FilterIncidents(incidents, small))
		larger := ids(FilterIncidents(incidents, large))
		assert.Subset(t, larger, smaller)
	}
}

func TestFilterIncidents_StatusSitesAndTime(t *testing.T) {
	f := allFilters()
	f.Status = []string{"open", "acknowledged"}
	assert.Equal(t, []string{"1", "2", "5"}, ids(FilterIncidents(sampleIncidents(), f)))

	f.Sites = []string{"Manifa Field"}
	assert.Equal(t, []string{"2", "5"}, ids(FilterIncidents(sampleIncidents(), f)))

	f = allFilters()
	f.TimeRange = models.TimeRange{Start: now.Add(-24 * time.Hour), End: now}
	assert.NotContains(t, ids(FilterIncidents(sampleIncidents(), f)), "5")

	// bounds are inclusive
	f.TimeRange = models.TimeRange{Start: now.Add(-2 * time.Hour), End: now.Add(-2 * time.Hour)}
	assert.Equal(t, []string{"1"}, ids(FilterIncidents(sampleIncidents(), f)))
}

func TestFilterIncidents_Idempotent(t *testing.T) {
	st := store.InitialState(now)
	st.Incidents = sampleIncidents()

	first := FilterIncidents(st.Incidents, st.Filters)
	second := FilterIncidents(st.Incidents, st.Filters)
	assert.Equal(t, first, second)
}

func TestSortIncidents_AgeDescMatchesCreatedAtAsc(t *testing.T) {
	incidents := sampleIncidents()
	byAge := SortIncidents(incidents, SortConfig{Key: SortAge, Direction: Desc}, now)
	byCreated := SortIncidents(incidents, SortConfig{Key: SortCreatedAt, Direction: Asc}, now)

	assert.Equal(t, ids(byCreated), ids(byAge))
	assert.Equal(t, []string{"5", "3", "1", "6", "2", "4"}, ids(byAge))
}

func TestSortIncidents_IsStableAndDoesNotMutate(t *testing.T) {
	incidents := sampleIncidents()
	original := ids(incidents)

	got := SortIncidents(incidents, SortConfig{Key: SortSeverity, Direction: Asc}, now)
	assert.Equal(t, []string{"1", "6", "2", "5", "3", "4"}, ids(got), "critical ties keep input order")
	assert.Equal(t, original, ids(incidents))

	got = SortIncidents(incidents, SortConfig{Key: SortSeverity, Direction: Desc}, now)
	assert.Equal(t, []string{"4", "3", "5", "2", "1", "6"}, ids(got))
}

func TestSortIncidents_SLARemaining(t *testing.T) {
	got := SortIncidents(sampleIncidents(), SortConfig{Key: SortSLARemaining, Direction: Asc}, now)
	// incident 5 is a day past its deadline, incident 1 has two hours left
	assert.Equal(t, "5", got[0].ID)
	assert.Equal(t, "1", got[1].ID)
}

func TestGroupIncidents_NoneIsIdentity(t *testing.T) {
	sorted := SortIncidents(sampleIncidents(), DefaultSort, now)
	groups := GroupIncidents(sorted, GroupNone)

	require.Len(t, groups, 1)
	assert.Equal(t, AllIncidentsGroup, groups[0].Key)
	assert.Equal(t, sorted, groups[0].Incidents)
}

func TestGroupIncidents_FirstEncounterOrder(t *testing.T) {
	groups := GroupIncidents(sampleIncidents(), GroupSite)

	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{"Ghawar Field", "Manifa Field", "Shaybah Field"}, keys)
	assert.Equal(t, []string{"1", "3"}, ids(groups[0].Incidents))

	bySeverity := GroupIncidents(sampleIncidents(), GroupSeverity)
	assert.Equal(t, "critical", bySeverity[0].Key)
	assert.Equal(t, []string{"1", "6"}, ids(bySeverity[0].Incidents))
}

func TestBuildIncidentTable(t *testing.T) {
	st := store.InitialState(now)
	st.Incidents = sampleIncidents()

	table := BuildIncidentTable(st, DefaultSort, GroupStatus, now)
	// initial filters: last 24h, active statuses only
	assert.Equal(t, 3, table.Total)
	assert.Equal(t, "open", table.Groups[0].Key)
}

func TestBuildIncidentTable_DerivesOverdueAtNow(t *testing.T) {
	late := incident("late", models.SeverityCritical, models.StatusOpen, "Ghawar Field", 10*time.Hour)
	late.RefreshSLA(late.CreatedAt.Add(time.Minute))
	require.False(t, late.SLA.IsOverdue)

	fresh := incident("fresh", models.SeverityHigh, models.StatusOpen, "Ghawar Field", time.Minute)
	fresh.SLA.IsOverdue = true

	st := store.InitialState(now)
	st.Filters = allFilters()
	st.Incidents = []models.Incident{late, fresh}

	table := BuildIncidentTable(st, SortConfig{Key: SortID, Direction: Asc}, GroupNone, now)
	require.Len(t, table.Groups, 1)
	rows := table.Groups[0].Incidents
	require.Equal(t, []string{"fresh", "late"}, ids(rows))
	assert.False(t, rows[0].SLA.IsOverdue)
	assert.True(t, rows[1].SLA.IsOverdue)
	assert.Equal(t, 1, ComputeKPIs(st, now).OverdueIncidents)

	assert.False(t, st.Incidents[0].SLA.IsOverdue, "state is not mutated")
	assert.True(t, st.Incidents[1].SLA.IsOverdue, "state is not mutated")

	entities := VisibleEntities(st, now)
	require.Len(t, entities.Incidents, 2)
	assert.True(t, entities.Incidents[0].SLA.IsOverdue)
	assert.False(t, entities.Incidents[1].SLA.IsOverdue)
}

func TestSelectedIncidents(t *testing.T) {
	st := store.InitialState(now)
	st.Incidents = sampleIncidents()
	st.SelectedIncidentIDs = []string{"4", "2", "missing"}

	assert.Equal(t, []string{"2", "4"}, ids(SelectedIncidents(st)))
}
