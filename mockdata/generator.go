package mockdata

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"opsecho/models"
	"opsecho/views"
)

// Site is a named field location that people and equipment are assigned to
type Site struct {
	Name     string
	Location models.Location
}

// Sites are the fixed field locations used by the generator
var Sites = []Site{
	{Name: "Ghawar Field", Location: models.Location{Lat: 25.5000, Lng: 49.5000}},
	{Name: "Safaniya Field", Location: models.Location{Lat: 27.7000, Lng: 48.8000}},
	{Name: "Abqaiq Processing", Location: models.Location{Lat: 25.9358, Lng: 49.6647}},
	{Name: "Khursaniyah", Location: models.Location{Lat: 26.1500, Lng: 49.8500}},
	{Name: "Shaybah Field", Location: models.Location{Lat: 22.5000, Lng: 53.0000}},
	{Name: "Manifa Field", Location: models.Location{Lat: 27.2000, Lng: 49.0000}},
	{Name: "Berri Gas Plant", Location: models.Location{Lat: 26.7000, Lng: 50.1000}},
	{Name: "Wasit Gas Plant", Location: models.Location{Lat: 24.8000, Lng: 49.2000}},
}

var names = []string{
	"Ahmed Al-Rashid", "Fatima Al-Zahra", "Mohammed bin Salman", "Sarah Al-Qahtani",
	"Abdullah Al-Mutairi", "Nora Al-Dosari", "Khalid Al-Harbi", "Maryam Al-Shehri",
	"Omar Al-Ghamdi", "Aisha Al-Malki", "Sultan Al-Otaibi", "Huda Al-Johani",
	"Fahad Al-Qahtani", "Layla Al-Hariri", "Nasser Al-Subai", "Reem Al-Mansouri",
}

var incidentTitles = []string{
	"High Pressure Alert on Compressor Unit",
	"Gas Leak Detected in Processing Area",
	"Temperature Anomaly in Pump Station",
	"Unauthorized Access Attempt",
	"Equipment Vibration Threshold Exceeded",
	"H2S Sensor Malfunction",
	"Fire Suppression System Test Failure",
	"Power Supply Voltage Fluctuation",
	"Cooling Water Temperature High",
	"Emergency Shutdown Valve Stuck",
	"Corrosion Detected in Pipeline",
	"Worker Proximity Alert",
	"Communication System Interference",
	"Instrument Air Pressure Low",
	"Environmental Discharge Limit Exceeded",
}

var (
	machineTypes = []models.MachineType{
		models.MachinePump, models.MachineCompressor, models.MachineValve,
		models.MachineTank, models.MachineSensor, models.MachineGenerator,
	}
	machineStatuses = []models.MachineStatus{
		models.MachineOperational, models.MachineMaintenance, models.MachineFault, models.MachineOffline,
	}
	incidentStatuses = []models.IncidentStatus{
		models.StatusOpen, models.StatusAcknowledged, models.StatusInvestigating, models.StatusResolved,
	}
	interactionTypes = []models.InteractionType{
		models.InteractionOperation, models.InteractionInspection, models.InteractionMaintenance,
		models.InteractionOverride, models.InteractionProximity,
	}
	interactionResults = []models.InteractionResult{
		models.ResultSuccess, models.ResultFailure, models.ResultPartial, models.ResultPending,
	}
	trends        = []models.Trend{models.TrendUp, models.TrendDown, models.TrendStable}
	manufacturers = []string{"Siemens", "GE", "ABB", "Schneider"}
)

// ChannelSpec holds the fixed unit, bounds and thresholds of a channel type
type ChannelSpec struct {
	Type     models.ChannelType
	Unit     string
	Max      float64
	Warning  float64
	Critical float64
}

// ChannelSpecs are generated for every machine, in this order
var ChannelSpecs = []ChannelSpec{
	{Type: models.ChannelPressure, Unit: "bar", Max: 100, Warning: 80, Critical: 95},
	{Type: models.ChannelTemperature, Unit: "°C", Max: 200, Warning: 150, Critical: 180},
	{Type: models.ChannelVibration, Unit: "mm/s", Max: 10, Warning: 7, Critical: 9},
	{Type: models.ChannelFlow, Unit: "m³/h", Max: 1000, Warning: 800, Critical: 950},
	{Type: models.ChannelPower, Unit: "kW", Max: 1000, Warning: 800, Critical: 950},
}

// Collection sizes
const (
	IncidentCount    = 25
	ThreadCount      = 8
	LinkedThreads    = 5
	InteractionCount = 30
)

const kmPerDegree = 111.0

// Generator produces cross-referenced synthetic datasets.
// A Generator is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
}

// New creates a generator; a zero seed seeds from the clock
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate builds a complete snapshot relative to now
func (g *Generator) Generate(now time.Time) *models.Snapshot {
	humans := g.humans(now)
	machines, machineSites := g.machines(now)
	incidents := g.incidents(now, humans, machines, machineSites)
	channels := g.telemetryChannels(now, machines)
	threads := g.chatThreads(now)
	messages := g.chatMessages(now, threads, humans, incidents, machines)
	interactions := g.interactions(now, humans, machines)

	snap := &models.Snapshot{
		Humans:                   humans,
		Machines:                 machines,
		Incidents:                incidents,
		TelemetryChannels:        channels,
		ChatThreads:              threads,
		ChatMessages:             messages,
		HumanMachineInteractions: interactions,
	}
	snap.Statistics = views.ComputeStatistics(*snap, now)
	return snap
}

// jitter places a point uniformly inside a square of radiusKm around base
func (g *Generator) jitter(base models.Location, radiusKm float64) models.Location {
	r := radiusKm / kmPerDegree
	return models.Location{
		Lat: base.Lat + (g.rng.Float64()-0.5)*2*r,
		Lng: base.Lng + (g.rng.Float64()-0.5)*2*r,
	}
}

func (g *Generator) within(now time.Time, span time.Duration) time.Time {
	return now.Add(-time.Duration(g.rng.Int63n(int64(span))))
}

func (g *Generator) humans(now time.Time) []models.Human {
	humans := make([]models.Human, 0, len(names))
	for i, name := range names {
		site := Sites[i%len(Sites)]
		status := models.HumanActive
		if g.rng.Float64() < 0.1 {
			status = models.HumanInactive
		}
		humans = append(humans, models.Human{
			ID:             fmt.Sprintf("human_%d", i+1),
			Name:           name,
			Role:           models.HumanRoles[i%len(models.HumanRoles)],
			BadgeID:        fmt.Sprintf("BADGE_%d", 1000+i),
			Certifications: []string{"H2S Safety", "Fire Safety", "First Aid"},
			Location:       g.jitter(site.Location, 5),
			LastSeen:       g.within(now, time.Hour),
			Status:         status,
			Contact: models.Contact{
				Phone: fmt.Sprintf("+966-%d", 1000000000+g.rng.Int63n(9000000000)),
				Radio: fmt.Sprintf("CH_%d", g.rng.Intn(16)+1),
				Email: strings.ToLower(strings.Join(strings.Fields(name), ".")) + "@fieldops.sa",
			},
			Shift: models.Shift{
				Start: now.Add(-8 * time.Hour),
				End:   now.Add(4 * time.Hour),
				Site:  site.Name,
			},
		})
	}
	return humans
}

func (g *Generator) machines(now time.Time) ([]models.Machine, map[string]string) {
	var machines []models.Machine
	sites := make(map[string]string)
	month := int64(30 * 24 * time.Hour)

	for s, site := range Sites {
		count := 8 + g.rng.Intn(5)
		for i := 0; i < count; i++ {
			t := machineTypes[i%len(machineTypes)]
			m := models.Machine{
				ID:              fmt.Sprintf("machine_%d_%d", s, i+1),
				Name:            fmt.Sprintf("%s-%d-%03d", strings.ToUpper(string(t)), s+1, i+1),
				Type:            t,
				Model:           fmt.Sprintf("Model-%d", g.rng.Intn(1000)+100),
				Manufacturer:    manufacturers[g.rng.Intn(len(manufacturers))],
				SerialNumber:    fmt.Sprintf("SN%d", g.rng.Intn(1000000)+100000),
				Location:        g.jitter(site.Location, 2),
				Status:          machineStatuses[g.rng.Intn(len(machineStatuses))],
				HealthScore:     models.ClampScore(60 + g.rng.Intn(40)),
				LastMaintenance: now.Add(-time.Duration(g.rng.Int63n(month))),
				NextMaintenance: now.Add(time.Duration(g.rng.Int63n(month))),
				Tags:            []string{"critical", "monitored"},
				Specifications: map[string]string{
					"capacity":    fmt.Sprintf("%d m³/h", g.rng.Intn(1000)+100),
					"pressure":    fmt.Sprintf("%d bar", g.rng.Intn(50)+10),
					"temperature": fmt.Sprintf("%d°C", g.rng.Intn(200)+50),
					"power":       fmt.Sprintf("%d kW", g.rng.Intn(500)+50),
				},
			}
			machines = append(machines, m)
			sites[m.ID] = site.Name
		}
	}
	return machines, sites
}

func (g *Generator) detectedBy() string {
	switch r := g.rng.Float64(); {
	case r < 0.3:
		return "ai"
	case r < 0.5:
		return "human"
	default:
		return "sensor"
	}
}

func (g *Generator) incidents(now time.Time, humans []models.Human, machines []models.Machine, machineSites map[string]string) []models.Incident {
	incidents := make([]models.Incident, 0, IncidentCount)
	for i := 0; i < IncidentCount; i++ {
		severity := models.Severities[g.rng.Intn(len(models.Severities))]
		machine := machines[g.rng.Intn(len(machines))]
		createdAt := g.within(now, 7*24*time.Hour)
		updatedAt := createdAt.Add(time.Duration(g.rng.Int63n(int64(24 * time.Hour))))
		if updatedAt.After(now) {
			updatedAt = now
		}

		priority := 3
		switch severity {
		case models.SeverityCritical:
			priority = 1
		case models.SeverityHigh:
			priority = 2
		}

		involved := g.rng.Perm(len(humans))[:1+g.rng.Intn(3)]
		humanIDs := make([]string, 0, len(involved))
		for _, idx := range involved {
			humanIDs = append(humanIDs, humans[idx].ID)
		}

		incident := models.Incident{
			ID:    fmt.Sprintf("incident_%d", i+1),
			Title: incidentTitles[i%len(incidentTitles)],
			Description: fmt.Sprintf("Automated detection system identified anomalous conditions requiring immediate attention. Location: %.4f, %.4f",
				machine.Location.Lat, machine.Location.Lng),
			Severity:         severity,
			Status:           incidentStatuses[g.rng.Intn(len(incidentStatuses))],
			Type:             models.IncidentTypes[g.rng.Intn(len(models.IncidentTypes))],
			Priority:         priority,
			CreatedAt:        createdAt,
			UpdatedAt:        updatedAt,
			DetectedBy:       g.detectedBy(),
			Location:         machine.Location,
			Site:             machineSites[machine.ID],
			Unit:             fmt.Sprintf("Unit-%d", g.rng.Intn(10)+1),
			InvolvedHumans:   humanIDs,
			InvolvedMachines: []string{machine.ID},
			SLA:              models.SLAFor(severity, createdAt),
			RiskScore:        models.ClampScore(g.rng.Intn(100)),
			EvidenceURLs:     []string{},
			Tags:             []string{"automated", "monitoring"},
		}
		incident.RefreshSLA(now)
		incidents = append(incidents, incident)
	}
	return incidents
}

func (g *Generator) telemetryChannels(now time.Time, machines []models.Machine) []models.TelemetryChannel {
	channels := make([]models.TelemetryChannel, 0, len(machines)*len(ChannelSpecs))
	for _, m := range machines {
		for _, spec := range ChannelSpecs {
			warning, critical := spec.Warning, spec.Critical
			label := string(spec.Type)
			channels = append(channels, models.TelemetryChannel{
				ID:                fmt.Sprintf("%s_%s", m.ID, spec.Type),
				MachineID:         m.ID,
				Name:              m.Name + " " + strings.ToUpper(label[:1]) + label[1:],
				Type:              spec.Type,
				Unit:              spec.Unit,
				MinValue:          0,
				MaxValue:          spec.Max,
				WarningThreshold:  &warning,
				CriticalThreshold: &critical,
				CurrentValue:      g.rng.Float64() * spec.Max,
				LastUpdate:        g.within(now, 5*time.Minute),
				IsAnomalous:       g.rng.Float64() < 0.1,
				TrendDirection:    trends[g.rng.Intn(len(trends))],
			})
		}
	}
	return channels
}

func (g *Generator) chatThreads(now time.Time) []models.ChatThread {
	threads := make([]models.ChatThread, 0, ThreadCount)
	for i := 0; i < ThreadCount; i++ {
		t := models.ChatThread{
			ID:           fmt.Sprintf("thread_%d", i+1),
			Title:        fmt.Sprintf("Emergency Response Team %d", i+1),
			Participants: []string{fmt.Sprintf("human_%d", i+1), fmt.Sprintf("human_%d", i+2), fmt.Sprintf("human_%d", i+3)},
			CreatedAt:    g.within(now, 24*time.Hour),
			LastActivity: g.within(now, time.Hour),
			MessageCount: g.rng.Intn(50) + 10,
			IsActive:     g.rng.Float64() >= 0.3,
			Summary:      "Coordinating response to equipment anomaly and safety assessment.",
		}
		if i < LinkedThreads {
			t.IncidentID = fmt.Sprintf("incident_%d", i+1)
		}
		threads = append(threads, t)
	}
	return threads
}

// AssistantID is the sender id of system-generated chat analysis
const AssistantID = "ai_assistant"

type scriptLine struct {
	sender  int // index into participants, -1 for the assistant
	ago     time.Duration
	content string
	radio   bool
	tags    []string
}

var script = []scriptLine{
	{0, 5 * time.Minute, "Readings are showing anomalies on %s. Investigating now.", false, []string{"telemetry"}},
	{1, 3 * time.Minute, "Copy that. Reviewing the telemetry for %s. Can you confirm the current reading?", true, nil},
	{-1, 2 * time.Minute, "Analysis complete: trend on %s shows a 15%% increase over baseline in the last 30 minutes. Recommend immediate inspection of relief valve settings.", false, []string{"ai-analysis", "recommendation"}},
	{0, 1 * time.Minute, "Relief valve on %s appears to be functioning normally. Checking upstream conditions.", true, nil},
}

func (g *Generator) chatMessages(now time.Time, threads []models.ChatThread, humans []models.Human, incidents []models.Incident, machines []models.Machine) []models.ChatMessage {
	incidentByID := make(map[string]models.Incident, len(incidents))
	for _, inc := range incidents {
		incidentByID[inc.ID] = inc
	}

	var messages []models.ChatMessage
	for _, thread := range threads {
		incident, ok := incidentByID[thread.IncidentID]
		if !ok {
			continue
		}
		machineName := views.MachineName(machines, incident.InvolvedMachines[0])

		for n, line := range script {
			msg := models.ChatMessage{
				ID:                fmt.Sprintf("msg_%s_%d", thread.ID, n+1),
				Timestamp:         now.Add(-line.ago),
				Content:           fmt.Sprintf(line.content, machineName),
				Type:              "text",
				ThreadID:          thread.ID,
				IncidentID:        thread.IncidentID,
				Attachments:       []models.Attachment{},
				IsRadioTranscript: line.radio,
				Mentions:          []string{},
				Tags:              append([]string{}, line.tags...),
			}
			if line.sender < 0 {
				msg.SenderID, msg.SenderName, msg.SenderRole = AssistantID, "AI Assistant", "system"
			} else {
				id := thread.Participants[line.sender]
				msg.SenderID = id
				msg.SenderName = views.HumanName(humans, id)
				msg.SenderRole = views.HumanRole(humans, id)
			}
			if n == 1 {
				msg.Mentions = []string{thread.Participants[0]}
			}
			messages = append(messages, msg)
		}
	}
	return messages
}

func (g *Generator) interactions(now time.Time, humans []models.Human, machines []models.Machine) []models.HumanMachineInteraction {
	out := make([]models.HumanMachineInteraction, 0, InteractionCount)
	for i := 0; i < InteractionCount; i++ {
		kind := interactionTypes[g.rng.Intn(len(interactionTypes))]
		hmi := models.HumanMachineInteraction{
			ID:        fmt.Sprintf("hmi_%d", i+1),
			HumanID:   humans[g.rng.Intn(len(humans))].ID,
			MachineID: machines[g.rng.Intn(len(machines))].ID,
			Type:      kind,
			Action:    "System check and parameter adjustment",
			Result:    interactionResults[g.rng.Intn(len(interactionResults))],
			Timestamp: g.within(now, 24*time.Hour),
			Duration:  g.rng.Intn(3600),
			Notes:     "Routine maintenance procedure completed successfully",
		}
		if kind == models.InteractionOverride {
			hmi.RiskAssessment = &models.RiskAssessment{
				Level:   "high",
				Factors: []string{"safety interlock bypassed"},
			}
		}
		out = append(out, hmi)
	}
	return out
}
