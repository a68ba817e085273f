package sensor

import (
	"context"
	"time"

	"sensai/internal/logger"
	"sensai/internal/models"
)

const DefaultRemoteDT = 5 * time.Second

// Reader reads the current values of a sauna controller.
type Reader interface {
	ReadSensors(ctx context.Context, deviceID string) (models.SensorReading, error)
}

// Remote polls a Reader on every tick. A failed read is logged and the
// tick skipped; polling continues until stopped.
type Remote struct {
	reader   Reader
	deviceID string
	tick     time.Duration
	log      *logger.Logger
}

func NewRemote(reader Reader, deviceID string, tick time.Duration, log *logger.Logger) *Remote {
	if tick <= 0 {
		tick = DefaultRemoteDT
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Remote{reader: reader, deviceID: deviceID, tick: tick, log: log}
}

func (r *Remote) Start(ctx context.Context, _ int, _ int, onSample func(models.SensorRecord)) StopFunc {
	return runTicker(ctx, r.tick, func(ctx context.Context, _ time.Time) {
		reading, err := r.reader.ReadSensors(ctx, r.deviceID)
		if err != nil {
			if ctx.Err() == nil {
				r.log.Warnw("sensor_poll_failed", "device_id", r.deviceID, "err", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		onSample(reading.Record())
	})
}
