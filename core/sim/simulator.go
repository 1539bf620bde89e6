package sim

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/DevBash1/trackpadal/core/model"
	"github.com/DevBash1/trackpadal/infra/logger"
)

const (
	defaultTickInterval  = 250 * time.Millisecond
	defaultDriftInterval = 4 * time.Second

	// maxTickSeconds absorbs scheduler jitter: a late tick never
	// advances the model by more than one second.
	maxTickSeconds = 1.0
	easeSeconds    = 3.0

	driftMaxDeg       = 8.0
	noiseMaxDegPerSec = 0.4

	batteryDropPctPerMeter = 0.001

	initialBatteryPct = 100.0
	initialTyrePsi    = 85.0
	minTyrePsi        = 40.0
	maxTyrePsi        = 120.0
	tyreAdjustStepPsi = 2.0
	minSpeedKmh       = 0.0
)

// Config holds parameters for the bicycle simulator.
type Config struct {
	// TickInterval is the simulation step cadence.
	TickInterval time.Duration
	// DriftInterval is the heading drift resampling cadence. It is
	// timer driven and independent of the tick loop.
	DriftInterval   time.Duration
	InitialSpeedKmh float64
	AutoStart       bool
	// Seed fixes the drift and wobble randomness. Zero seeds from the
	// wall clock.
	Seed uint64
}

func (c *Config) setDefaults() {
	if c.TickInterval <= 0 {
		c.TickInterval = defaultTickInterval
	}
	if c.DriftInterval <= 0 {
		c.DriftInterval = defaultDriftInterval
	}
}

// state is the authoritative simulation record. It is owned by the Run
// loop goroutine; operator commands mutate it in-loop only.
type state struct {
	x, y              float64
	headingDeg        float64
	speedKmh          float64
	torchOn           bool
	running           bool
	batteryPct        float64
	batteryDistanceKm float64
	tyrePressurePsi   float64
}

// driftTarget is the heading value the simulator eases toward over the
// resampling interval.
type driftTarget struct {
	targetDeg float64
	progress  float64
}

// Simulator advances a bicycle's telemetry once per tick and hands each
// resulting snapshot to a single notify callback. All mutation happens
// on the Run goroutine, so no locking is required.
type Simulator struct {
	cfg    Config
	log    logger.Logger
	notify func(model.Snapshot)

	state state
	drift driftTarget

	targetDist distuv.Uniform
	noiseDist  distuv.Uniform

	cmds chan func()
	tick *time.Timer
	last time.Time
}

// New creates a Simulator. The notify callback is invoked synchronously
// after every tick and whenever the running flag transitions; it must
// not block.
func New(cfg Config, notify func(model.Snapshot), log logger.Logger) *Simulator {
	cfg.setDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewPCG(seed, seed)
	return &Simulator{
		cfg:    cfg,
		log:    log,
		notify: notify,
		state: state{
			speedKmh:        cfg.InitialSpeedKmh,
			running:         cfg.AutoStart,
			batteryPct:      initialBatteryPct,
			tyrePressurePsi: initialTyrePsi,
		},
		targetDist: distuv.Uniform{Min: -driftMaxDeg, Max: driftMaxDeg, Src: src},
		noiseDist:  distuv.Uniform{Min: -noiseMaxDegPerSec, Max: noiseMaxDegPerSec, Src: src},
		cmds:       make(chan func(), 16),
	}
}

// Run drives the simulation until ctx is cancelled. The tick timer is
// re-armed only after a tick's synchronous work completes, so ticks
// never overlap, and stopping guarantees no further tick fires.
func (s *Simulator) Run(ctx context.Context) error {
	s.resampleDrift()
	driftTicker := time.NewTicker(s.cfg.DriftInterval)
	defer driftTicker.Stop()

	s.tick = time.NewTimer(s.cfg.TickInterval)
	if !s.state.running {
		stopTimer(s.tick)
	}
	s.last = time.Now()
	s.log.Infof("simulator started (running=%v, speed=%.0f km/h)", s.state.running, s.state.speedKmh)

	for {
		select {
		case <-ctx.Done():
			stopTimer(s.tick)
			return nil
		case <-driftTicker.C:
			// Resampling is independent of the running flag.
			s.resampleDrift()
		case now := <-s.tick.C:
			s.step(now.Sub(s.last).Seconds())
			s.last = now
			s.tick.Reset(s.cfg.TickInterval)
		case fn := <-s.cmds:
			fn()
		}
	}
}

// do schedules an operator command on the loop goroutine.
func (s *Simulator) do(fn func()) { s.cmds <- fn }

// Start resumes ticking and emits an out-of-band snapshot so observers
// can react without waiting for the next tick.
func (s *Simulator) Start() {
	s.do(func() {
		if s.state.running {
			return
		}
		s.state.running = true
		s.last = time.Now()
		s.tick.Reset(s.cfg.TickInterval)
		s.emit()
	})
}

// Stop suspends ticking. No tick fires after the stop command is
// applied, even if one was already pending.
func (s *Simulator) Stop() {
	s.do(func() {
		if !s.state.running {
			return
		}
		s.state.running = false
		stopTimer(s.tick)
		s.emit()
	})
}

// SetSpeed sets the operator speed in km/h. Speed is an input, not an
// integrated quantity.
func (s *Simulator) SetSpeed(kmh float64) {
	s.do(func() {
		s.state.speedKmh = math.Max(minSpeedKmh, kmh)
	})
}

// SetTorch switches the torch on or off.
func (s *Simulator) SetTorch(on bool) {
	s.do(func() { s.state.torchOn = on })
}

// AdjustTyrePressure applies one operator increment (or decrement) to
// the tyre pressure.
func (s *Simulator) AdjustTyrePressure(up bool) {
	s.do(func() {
		delta := tyreAdjustStepPsi
		if !up {
			delta = -tyreAdjustStepPsi
		}
		s.state.tyrePressurePsi = clamp(s.state.tyrePressurePsi+delta, minTyrePsi, maxTyrePsi)
	})
}

// ResetPosition returns the bicycle to the origin with heading east.
// Battery, tyre pressure and torch are untouched.
func (s *Simulator) ResetPosition() {
	s.do(func() {
		s.state.x, s.state.y = 0, 0
		s.state.headingDeg = 0
	})
}

// ResetBattery restores a full battery and zeroes the distance counter.
func (s *Simulator) ResetBattery() {
	s.do(func() {
		s.state.batteryPct = initialBatteryPct
		s.state.batteryDistanceKm = 0
	})
}

// Snapshot returns the current state via the loop goroutine. It must
// only be called while Run is active.
func (s *Simulator) Snapshot() model.Snapshot {
	ch := make(chan model.Snapshot, 1)
	s.do(func() { ch <- s.snapshot() })
	return <-ch
}

// step advances the state by dt seconds and emits the snapshot.
func (s *Simulator) step(dt float64) {
	if dt < 0 {
		dt = 0
	}
	if dt > maxTickSeconds {
		dt = maxTickSeconds
	}

	s.drift.progress = math.Min(1, s.drift.progress+dt/easeSeconds)
	driftRate := s.drift.targetDeg * easeInOutCubic(s.drift.progress)
	noise := s.noiseDist.Rand()
	s.state.headingDeg = wrap360(s.state.headingDeg + driftRate*dt + noise*dt)

	speedMps := s.state.speedKmh * 1000 / 3600
	distance := speedMps * dt
	rad := s.state.headingDeg * math.Pi / 180
	s.state.x += math.Cos(rad) * distance
	s.state.y += math.Sin(rad) * distance

	s.state.batteryPct = clamp(s.state.batteryPct-distance*batteryDropPctPerMeter, 0, initialBatteryPct)
	s.state.batteryDistanceKm += distance / 1000

	s.emit()
}

func (s *Simulator) emit() {
	if s.notify != nil {
		s.notify(s.snapshot())
	}
}

func (s *Simulator) snapshot() model.Snapshot {
	return model.Snapshot{
		X:                 s.state.x,
		Y:                 s.state.y,
		HeadingDeg:        s.state.headingDeg,
		SpeedKmh:          s.state.speedKmh,
		SpeedMps:          s.state.speedKmh * 1000 / 3600,
		TorchOn:           s.state.torchOn,
		Running:           s.state.running,
		BatteryPct:        s.state.batteryPct,
		BatteryDistanceKm: s.state.batteryDistanceKm,
		TyrePressurePsi:   s.state.tyrePressurePsi,
	}
}

// stopTimer stops t and drains a pending fire so a stale tick cannot be
// observed after a stop request.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
