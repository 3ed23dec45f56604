package services

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"opsecho/models"
)

// DefaultWindowSize is the number of readings kept per channel
const DefaultWindowSize = 50

// trendWindow is how many recent readings feed the trend estimate
const trendWindow = 10

// AnomalyDetector handles threshold and trend analysis of telemetry readings
type AnomalyDetector struct {
	logger        *zap.Logger
	windowSize    int
	slidingWindow map[string]*SlidingWindow
	mutex         sync.RWMutex
	alertCallback func(*models.Alert)
}

// SlidingWindow maintains recent readings for a channel
type SlidingWindow struct {
	readings []models.TelemetryReading
	maxSize  int
	position int
	full     bool
}

// NewAnomalyDetector creates a new anomaly detector
func NewAnomalyDetector(windowSize int, logger *zap.Logger, alertCallback func(*models.Alert)) *AnomalyDetector {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &AnomalyDetector{
		logger:        logger,
		windowSize:    windowSize,
		slidingWindow: make(map[string]*SlidingWindow),
		alertCallback: alertCallback,
	}
}

// NewSlidingWindow creates a new sliding window
func NewSlidingWindow(maxSize int) *SlidingWindow {
	return &SlidingWindow{
		readings: make([]models.TelemetryReading, maxSize),
		maxSize:  maxSize,
	}
}

// Add adds a reading to the sliding window
func (sw *SlidingWindow) Add(reading models.TelemetryReading) {
	sw.readings[sw.position] = reading
	sw.position = (sw.position + 1) % sw.maxSize
	if !sw.full && sw.position == 0 {
		sw.full = true
	}
}

// GetReadings returns all readings in the window, oldest first
func (sw *SlidingWindow) GetReadings() []models.TelemetryReading {
	if !sw.full {
		return append([]models.TelemetryReading(nil), sw.readings[:sw.position]...)
	}

	result := make([]models.TelemetryReading, sw.maxSize)
	for i := 0; i < sw.maxSize; i++ {
		idx := (sw.position + i) % sw.maxSize
		result[i] = sw.readings[idx]
	}
	return result
}

// GetRecentReadings returns the N most recent readings
func (sw *SlidingWindow) GetRecentReadings(n int) []models.TelemetryReading {
	readings := sw.GetReadings()
	if n >= len(readings) {
		return readings
	}
	return readings[len(readings)-n:]
}

// IsAnomalous reports whether value is at or above the warning threshold or outside the channel bounds
func IsAnomalous(channel models.TelemetryChannel, value float64) bool {
	if value < channel.MinValue || value > channel.MaxValue {
		return true
	}
	return channel.WarningThreshold != nil && value >= *channel.WarningThreshold
}

// Analyze records reading and returns channel updated with the new value, anomaly flag and trend.
// Crossing the critical threshold or leaving the channel bounds raises an alert.
func (ad *AnomalyDetector) Analyze(channel models.TelemetryChannel, reading models.TelemetryReading) models.TelemetryChannel {
	ad.mutex.Lock()
	window, exists := ad.slidingWindow[channel.ID]
	if !exists {
		window = NewSlidingWindow(ad.windowSize)
		ad.slidingWindow[channel.ID] = window
	}
	window.Add(reading)
	recent := window.GetRecentReadings(trendWindow)
	ad.mutex.Unlock()

	previous := channel.CurrentValue
	updated := channel
	updated.CurrentValue = reading.Value
	updated.LastUpdate = reading.Timestamp
	updated.IsAnomalous = IsAnomalous(channel, reading.Value)
	if trend, ok := detectTrend(recent, channel.MaxValue-channel.MinValue); ok {
		updated.TrendDirection = trend
	}

	ad.detectThresholdViolations(channel, previous, reading)
	return updated
}

// detectThresholdViolations alerts when a reading newly crosses the critical threshold or the bounds
func (ad *AnomalyDetector) detectThresholdViolations(channel models.TelemetryChannel, previous float64, reading models.TelemetryReading) {
	var alerts []*models.Alert

	if c := channel.CriticalThreshold; c != nil && reading.Value >= *c && previous < *c {
		alerts = append(alerts, &models.Alert{
			AlertType: fmt.Sprintf("%s_critical", channel.Type),
			Severity:  models.SeverityCritical,
			Message: fmt.Sprintf("%s above critical threshold: %.2f %s (critical: %.2f)",
				channel.Name, reading.Value, channel.Unit, *c),
		})
	}

	outside := func(v float64) bool { return v < channel.MinValue || v > channel.MaxValue }
	if outside(reading.Value) && !outside(previous) {
		alerts = append(alerts, &models.Alert{
			AlertType: fmt.Sprintf("%s_out_of_range", channel.Type),
			Severity:  models.SeverityHigh,
			Message: fmt.Sprintf("%s out of valid range: %.2f %s (range: %.2f-%.2f)",
				channel.Name, reading.Value, channel.Unit, channel.MinValue, channel.MaxValue),
		})
	}

	for _, alert := range alerts {
		alert.ChannelID = channel.ID
		alert.MachineID = channel.MachineID
		alert.Value = reading.Value
		alert.CreatedAt = reading.Timestamp
		ad.logger.Warn("telemetry alert",
			zap.String("channel_id", channel.ID),
			zap.String("alert_type", alert.AlertType),
			zap.Float64("value", reading.Value))
		if ad.alertCallback != nil {
			ad.alertCallback(alert)
		}
	}
}

// detectTrend fits a least-squares line through the readings and compares the change
// it predicts across the window with 1% of the channel range
func detectTrend(readings []models.TelemetryReading, span float64) (models.Trend, bool) {
	n := len(readings)
	if n < 2 {
		return "", false
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, r := range readings {
		x := float64(i)
		sumX += x
		sumY += r.Value
		sumXY += x * r.Value
		sumXX += x * x
	}
	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if denom == 0 {
		return models.TrendStable, true
	}
	slope := (nf*sumXY - sumX*sumY) / denom
	change := slope * float64(n-1)

	threshold := math.Abs(span) * 0.01
	switch {
	case change > threshold:
		return models.TrendUp, true
	case change < -threshold:
		return models.TrendDown, true
	default:
		return models.TrendStable, true
	}
}

// GetChannelStats returns statistics for a specific channel
func (ad *AnomalyDetector) GetChannelStats(channelID string) map[string]interface{} {
	ad.mutex.RLock()
	defer ad.mutex.RUnlock()

	window, exists := ad.slidingWindow[channelID]
	if !exists {
		return nil
	}

	readings := window.GetReadings()
	if len(readings) == 0 {
		return nil
	}

	var sum float64
	minValue, maxValue := math.Inf(1), math.Inf(-1)
	var lastTime time.Time
	for _, r := range readings {
		sum += r.Value
		minValue = math.Min(minValue, r.Value)
		maxValue = math.Max(maxValue, r.Value)
		lastTime = r.Timestamp
	}

	return map[string]interface{}{
		"reading_count":     len(readings),
		"avg_value":         sum / float64(len(readings)),
		"min_value":         minValue,
		"max_value":         maxValue,
		"last_reading_time": lastTime,
	}
}
