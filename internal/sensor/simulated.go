package sensor

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"sensai/internal/models"
)

// Simulation constants.
const (
	BaselineTempC      = 25.0
	BaselineHumidity   = 15.0
	HumidityRise       = 30.0
	HumidityCeiling    = 45.0
	TempJitterC        = 1.0
	HumidityJitter     = 0.5
	DefaultSimulatedDT = 3 * time.Second
)

// Rand is the randomness source of the simulation. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Simulated ramps from the baseline to the target temperature by the
// session midpoint, then adds noise around the reached values.
type Simulated struct {
	Tick time.Duration
	Rand Rand
}

// NewSimulated returns a simulated feed seeded from the clock.
func NewSimulated(tick time.Duration) *Simulated {
	if tick <= 0 {
		tick = DefaultSimulatedDT
	}
	return &Simulated{
		Tick: tick,
		Rand: &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))},
	}
}

func (s *Simulated) Start(ctx context.Context, minutes, targetTemp int, onSample func(models.SensorRecord)) StopFunc {
	tick := s.Tick
	if tick <= 0 {
		tick = DefaultSimulatedDT
	}
	sim := newSimulation(minutes, float64(targetTemp), tick, s.Rand)
	return runTicker(ctx, tick, func(_ context.Context, now time.Time) {
		temp, hum := sim.next()
		onSample(models.SensorRecord{Time: now.UTC(), Temperature: temp, Humidity: hum})
	})
}

// simulation is the pure stepping state of a simulated session.
type simulation struct {
	temp, hum         float64
	target            float64
	tempStep, humStep float64
	rand              Rand
}

func newSimulation(minutes int, target float64, tick time.Duration, r Rand) *simulation {
	steps := float64(minutes) * 60 / tick.Seconds()
	half := steps / 2
	if half < 1 {
		half = 1
	}
	if r == nil {
		r = rand.New(rand.NewSource(1))
	}
	return &simulation{
		temp:     BaselineTempC,
		hum:      BaselineHumidity,
		target:   target,
		tempStep: (target - BaselineTempC) / half,
		humStep:  HumidityRise / half,
		rand:     r,
	}
}

// next advances one tick and returns the rounded sample values.
func (s *simulation) next() (float64, float64) {
	if s.temp < s.target {
		s.temp = math.Min(s.target, s.temp+s.tempStep)
		s.hum = math.Min(HumidityCeiling, s.hum+s.humStep)
	} else {
		s.temp += (s.rand.Float64() - 0.5) * 2 * TempJitterC
		s.hum += (s.rand.Float64() - 0.5) * 2 * HumidityJitter
	}
	return math.Round(s.temp), math.Round(s.hum)
}
