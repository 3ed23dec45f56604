package views

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"opsecho/models"
	"opsecho/store"
)

// SortKey names the incident field used for ordering
type SortKey string

const (
	SortAge          SortKey = "age"
	SortSLARemaining SortKey = "slaRemaining"
	SortCreatedAt    SortKey = "createdAt"
	SortUpdatedAt    SortKey = "updatedAt"
	SortSeverity     SortKey = "severity"
	SortStatus       SortKey = "status"
	SortPriority     SortKey = "priority"
	SortRiskScore    SortKey = "riskScore"
	SortTitle        SortKey = "title"
	SortSite         SortKey = "site"
	SortID           SortKey = "id"
)

// SortDirection is asc or desc
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// SortConfig selects the key and direction of the incident table
type SortConfig struct {
	Key       SortKey       `json:"key"`
	Direction SortDirection `json:"direction"`
}

// DefaultSort shows the oldest incidents first
var DefaultSort = SortConfig{Key: SortAge, Direction: Desc}

// GroupBy partitions the incident table
type GroupBy string

const (
	GroupNone     GroupBy = "none"
	GroupSeverity GroupBy = "severity"
	GroupStatus   GroupBy = "status"
	GroupSite     GroupBy = "site"
)

// AllIncidentsGroup is the bucket name used when grouping is off
const AllIncidentsGroup = "All Incidents"

// Group is one named bucket of incidents
type Group struct {
	Key       string            `json:"key"`
	Incidents []models.Incident `json:"incidents"`
}

// FilterIncidents keeps incidents matching the severity, status, time range and site filters.
// Empty status and site filters do not constrain; an empty severity filter excludes everything.
func FilterIncidents(incidents []models.Incident, filters models.FilterState) []models.Incident {
	out := make([]models.Incident, 0, len(incidents))
	for _, incident := range incidents {
		if !slices.Contains(filters.Severity, incident.Severity) {
			continue
		}
		if len(filters.Status) > 0 && !slices.Contains(filters.Status, string(incident.Status)) {
			continue
		}
		if incident.CreatedAt.Before(filters.TimeRange.Start) || incident.CreatedAt.After(filters.TimeRange.End) {
			continue
		}
		if len(filters.Sites) > 0 && !slices.Contains(filters.Sites, incident.Site) {
			continue
		}
		out = append(out, incident)
	}
	return out
}

// SortIncidents returns a stably sorted copy of incidents.
// age is now minus createdAt and slaRemaining is resolveBy minus now.
// Severity sorts by rank, so ascending puts critical first.
func SortIncidents(incidents []models.Incident, cfg SortConfig, now time.Time) []models.Incident {
	out := slices.Clone(incidents)
	compare := comparatorFor(cfg.Key, now)
	if cfg.Direction == Desc {
		asc := compare
		compare = func(a, b models.Incident) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, compare)
	return out
}

func comparatorFor(key SortKey, now time.Time) func(a, b models.Incident) int {
	switch key {
	case SortAge:
		return func(a, b models.Incident) int {
			return cmp.Compare(now.Sub(a.CreatedAt), now.Sub(b.CreatedAt))
		}
	case SortSLARemaining:
		return func(a, b models.Incident) int {
			return cmp.Compare(a.SLA.ResolveBy.Sub(now), b.SLA.ResolveBy.Sub(now))
		}
	case SortUpdatedAt:
		return func(a, b models.Incident) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case SortSeverity:
		return func(a, b models.Incident) int { return cmp.Compare(a.Severity.Rank(), b.Severity.Rank()) }
	case SortStatus:
		return func(a, b models.Incident) int { return strings.Compare(string(a.Status), string(b.Status)) }
	case SortPriority:
		return func(a, b models.Incident) int { return cmp.Compare(a.Priority, b.Priority) }
	case SortRiskScore:
		return func(a, b models.Incident) int { return cmp.Compare(a.RiskScore, b.RiskScore) }
	case SortTitle:
		return func(a, b models.Incident) int { return strings.Compare(a.Title, b.Title) }
	case SortSite:
		return func(a, b models.Incident) int { return strings.Compare(a.Site, b.Site) }
	case SortID:
		return func(a, b models.Incident) int { return strings.Compare(a.ID, b.ID) }
	default:
		return func(a, b models.Incident) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

// GroupIncidents partitions sorted incidents into buckets in first-encounter order.
// GroupNone, or an unrecognised key, yields a single bucket holding the input unchanged.
func GroupIncidents(sorted []models.Incident, by GroupBy) []Group {
	var keyOf func(models.Incident) string
	switch by {
	case GroupSeverity:
		keyOf = func(i models.Incident) string { return string(i.Severity) }
	case GroupStatus:
		keyOf = func(i models.Incident) string { return string(i.Status) }
	case GroupSite:
		keyOf = func(i models.Incident) string { return i.Site }
	default:
		return []Group{{Key: AllIncidentsGroup, Incidents: sorted}}
	}

	groups := []Group{}
	index := make(map[string]int)
	for _, incident := range sorted {
		k := keyOf(incident)
		pos, ok := index[k]
		if !ok {
			pos = len(groups)
			index[k] = pos
			groups = append(groups, Group{Key: k})
		}
		groups[pos].Incidents = append(groups[pos].Incidents, incident)
	}
	return groups
}

// SelectedIncidents returns the selected incidents in collection order
func SelectedIncidents(state store.State) []models.Incident {
	out := []models.Incident{}
	for _, incident := range state.Incidents {
		if slices.Contains(state.SelectedIncidentIDs, incident.ID) {
			out = append(out, incident)
		}
	}
	return out
}

// involvedMachines collects the machine ids referenced by the selected incidents
func involvedMachines(state store.State) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, incident := range SelectedIncidents(state) {
		for _, id := range incident.InvolvedMachines {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// IncidentTable is the filtered, sorted and grouped incident view
type IncidentTable struct {
	Total  int     `json:"total"`
	Groups []Group `json:"groups"`
}

// BuildIncidentTable applies the state's filters, then sorts and groups the result.
// Overdue flags are recomputed against now.
func BuildIncidentTable(state store.State, sort SortConfig, by GroupBy, now time.Time) IncidentTable {
	filtered := FilterIncidents(models.RefreshIncidents(state.Incidents, now), state.Filters)
	sorted := SortIncidents(filtered, sort, now)
	return IncidentTable{Total: len(sorted), Groups: GroupIncidents(sorted, by)}
}
