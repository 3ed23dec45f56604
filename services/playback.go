package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"opsecho/store"
)

// Playback defaults
const (
	DefaultPlaybackWindow = 24 * time.Hour
	DefaultPlaybackTick   = 100 * time.Millisecond
	playbackStepFactor    = 0.1
	skipStep              = 5.0
)

// PlaybackSpeeds are cycled through by NextSpeed
var PlaybackSpeeds = []float64{0.5, 1, 2, 4, 8}

// Dispatcher applies store actions
type Dispatcher interface {
	Dispatch(ctx context.Context, action store.Action) (store.State, error)
}

// TickerFunc starts a ticker and returns its channel and a stop function
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// PlaybackStatus is a snapshot of the playback controls
type PlaybackStatus struct {
	Position    float64   `json:"position"`
	Speed       float64   `json:"speed"`
	Playing     bool      `json:"playing"`
	CurrentTime time.Time `json:"currentTime"`
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
}

// Playback drives a simulated current time across a window that ends now.
// Position runs from 0 (window start) to 100 (now).
type Playback struct {
	dispatcher Dispatcher
	logger     *zap.Logger
	window     time.Duration
	tick       time.Duration
	now        func() time.Time
	newTicker  TickerFunc

	mutex    sync.Mutex
	position float64
	speed    float64
	stop     context.CancelFunc
	run      int
}

// PlaybackOption customises a Playback
type PlaybackOption func(*Playback)

// WithClock replaces the wall clock and ticker, mainly for tests
func WithClock(now func() time.Time, ticker TickerFunc) PlaybackOption {
	return func(p *Playback) {
		p.now = now
		p.newTicker = ticker
	}
}

// WithWindow sets the playback window and tick interval
func WithWindow(window, tick time.Duration) PlaybackOption {
	return func(p *Playback) {
		if window > 0 {
			p.window = window
		}
		if tick > 0 {
			p.tick = tick
		}
	}
}

// NewPlayback creates a paused playback positioned mid-window
func NewPlayback(dispatcher Dispatcher, logger *zap.Logger, opts ...PlaybackOption) *Playback {
	p := &Playback{
		dispatcher: dispatcher,
		logger:     logger,
		window:     DefaultPlaybackWindow,
		tick:       DefaultPlaybackTick,
		now:        time.Now,
		newTicker:  realTicker,
		position:   50,
		speed:      1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play starts advancing the position and leaves live mode.
// The ticker stops on Pause, when the end is reached, or when ctx is cancelled.
func (p *Playback) Play(ctx context.Context) error {
	if _, err := p.dispatcher.Dispatch(ctx, store.SetLiveMode{Live: false}); err != nil {
		return err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.stop != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.stop = cancel
	p.run++
	ticks, stopTicker := p.newTicker(p.tick)
	go p.loop(runCtx, p.run, ticks, stopTicker)

	p.logger.Info("playback started", zap.Float64("position", p.position), zap.Float64("speed", p.speed))
	return nil
}

func (p *Playback) loop(ctx context.Context, run int, ticks <-chan time.Time, stopTicker func()) {
	defer stopTicker()
	for {
		select {
		case <-ctx.Done():
			p.mutex.Lock()
			if p.run == run {
				p.stop = nil
			}
			p.mutex.Unlock()
			return
		case <-ticks:
			if p.advance(ctx) {
				return
			}
		}
	}
}

// advance moves one step and reports whether playback finished.
// A cancelled ctx means Pause already owns the state.
func (p *Playback) advance(ctx context.Context) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if ctx.Err() != nil {
		return false
	}

	p.position += p.speed * playbackStepFactor
	if p.position < 100 {
		return false
	}
	p.position = 100
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
	p.logger.Info("playback reached end of window")
	return true
}

// Pause stops advancing
func (p *Playback) Pause() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.pauseLocked()
}

func (p *Playback) pauseLocked() {
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
}

// Restart pauses and rewinds to the start of the window
func (p *Playback) Restart() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.pauseLocked()
	p.position = 0
}

// JumpToNow pauses at the end of the window and returns to live mode
func (p *Playback) JumpToNow(ctx context.Context) error {
	p.mutex.Lock()
	p.pauseLocked()
	p.position = 100
	p.mutex.Unlock()

	_, err := p.dispatcher.Dispatch(ctx, store.SetLiveMode{Live: true})
	return err
}

// Seek moves to pos, clamped to [0,100]
func (p *Playback) Seek(pos float64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.position = clampPosition(pos)
}

// Skip moves forward (positive steps) or back by five percent per step
func (p *Playback) Skip(steps int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.position = clampPosition(p.position + float64(steps)*skipStep)
}

// SetSpeed changes the playback rate
func (p *Playback) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.speed = speed
}

// NextSpeed cycles to the next preset speed and returns it
func (p *Playback) NextSpeed() float64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	next := PlaybackSpeeds[0]
	for i, s := range PlaybackSpeeds {
		if s == p.speed {
			next = PlaybackSpeeds[(i+1)%len(PlaybackSpeeds)]
			break
		}
	}
	p.speed = next
	return next
}

// CurrentTime maps the position onto the window ending now
func (p *Playback) CurrentTime() time.Time {
	return p.Status().CurrentTime
}

// Status returns the current playback state
func (p *Playback) Status() PlaybackStatus {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	end := p.now()
	start := end.Add(-p.window)
	offset := time.Duration(p.position / 100 * float64(p.window))
	return PlaybackStatus{
		Position:    p.position,
		Speed:       p.speed,
		Playing:     p.stop != nil,
		CurrentTime: start.Add(offset),
		WindowStart: start,
		WindowEnd:   end,
	}
}

func clampPosition(pos float64) float64 {
	if pos < 0 {
		return 0
	}
	if pos > 100 {
		return 100
	}
	return pos
}
