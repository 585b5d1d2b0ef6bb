package device

import (
	"context"
	"log"
	"time"

	"github.com/skapoor1902/vruksh.aiot-master/internal/model"
)

// BusPublisher is the outbound side of the bus as the loop sees it.
type BusPublisher interface {
	Publish(suffix string, payload any) error
}

// ConnectivityManager restores both channels before network work.
type ConnectivityManager interface {
	EnsureConnected(ctx context.Context) bool
}

// EnvSource supplies the environmental snapshot taken with each
// scheduled reading.
type EnvSource interface {
	Sample() model.EnvSample
}

// Inbound is one bus delivery queued for the loop to poll.
type Inbound struct {
	Topic   string
	Payload []byte
}

// Config holds the loop's tunables.
type Config struct {
	PlantID      int
	Schedule     []model.ScheduleEntry
	PublishGuard time.Duration // min gap after a scheduled publish
	WakeCeiling  time.Duration // max sleep per iteration
}

// DefaultPublishGuard suppresses a scheduled reading that lands within
// this window of the previous scheduled publish. The window is global,
// not per entry: a second distinct entry inside it is also suppressed.
const DefaultPublishGuard = 60 * time.Second

// DefaultWakeCeiling bounds the sleep so inbound messages are polled
// promptly.
const DefaultWakeCeiling = 10 * time.Second

// Loop is the device's single-threaded cooperative scheduler. It
// exclusively owns the threshold monitor and watering controller;
// inbound messages are bridged into a channel and polled, never handled
// concurrently.
type Loop struct {
	cfg     Config
	sensor  Sensor
	env     EnvSource
	conn    ConnectivityManager
	pub     BusPublisher
	monitor *ThresholdMonitor
	waterer *WateringController

	inbox       chan Inbound
	lastEnv     model.EnvSample
	lastPublish time.Time

	// OnShutdown runs once when the loop exits, after the last step.
	OnShutdown func()

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func NewLoop(cfg Config, sensor Sensor, env EnvSource, conn ConnectivityManager, pub BusPublisher,
	monitor *ThresholdMonitor, waterer *WateringController) *Loop {
	if cfg.PublishGuard <= 0 {
		cfg.PublishGuard = DefaultPublishGuard
	}
	if cfg.WakeCeiling <= 0 {
		cfg.WakeCeiling = DefaultWakeCeiling
	}
	return &Loop{
		cfg:     cfg,
		sensor:  sensor,
		env:     env,
		conn:    conn,
		pub:     pub,
		monitor: monitor,
		waterer: waterer,
		inbox:   make(chan Inbound, 32),
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// Inbox is where the bus callback drops deliveries for the loop to
// poll. Writers must not block: the callback drops on a full inbox.
func (l *Loop) Inbox() chan<- Inbound { return l.inbox }

// Attach wires the connectivity manager and bus publisher after
// construction. The bus subscription callback needs the loop's inbox,
// so the session is built second.
func (l *Loop) Attach(conn ConnectivityManager, pub BusPublisher) {
	l.conn = conn
	l.pub = pub
}

// Run iterates until the context is cancelled, then shuts down cleanly.
func (l *Loop) Run(ctx context.Context) error {
	log.Printf("device: starting scheduled monitoring, %d schedule entries", len(l.cfg.Schedule))
	for _, e := range l.cfg.Schedule {
		log.Printf("device: schedule %s", e)
	}
	log.Printf("device: listening for thresholds on %s", model.Topic(model.TopicThreshold))

	for {
		select {
		case <-ctx.Done():
			log.Printf("device: monitoring stopped")
			if l.OnShutdown != nil {
				l.OnShutdown()
			}
			return ctx.Err()
		default:
		}

		l.step(ctx)
		l.sleep(ctx, l.sleepFor())
	}
}

// step runs one wake: drain inbox, schedule check, threshold check.
func (l *Loop) step(ctx context.Context) {
	l.drainInbox(ctx)
	l.checkSchedule(ctx)
	l.checkThreshold(ctx)
}

func (l *Loop) drainInbox(ctx context.Context) {
	for {
		select {
		case m := <-l.inbox:
			l.dispatch(ctx, m)
		default:
			return
		}
	}
}

func (l *Loop) dispatch(ctx context.Context, m Inbound) {
	log.Printf("device: message received on %s: %s", m.Topic, m.Payload)
	if m.Topic != model.Topic(model.TopicThreshold) {
		return
	}
	if _, err := l.monitor.SetThreshold(m.Payload, l.now()); err != nil {
		log.Printf("device: %v", err)
		return
	}
	// immediate check on a fresh threshold
	r, err := readAll(l.sensor)
	if err != nil {
		log.Printf("device: failed to read moisture for threshold check: %v", err)
		return
	}
	now := l.now()
	l.observe(r, now)
	l.monitor.CheckCrossing(r.Percent)
}

// checkSchedule fires a full read+publish cycle when an entry matches
// the current minute and the publish guard window has passed.
func (l *Loop) checkSchedule(ctx context.Context) {
	now := l.now()
	entry, ok := Due(now, l.cfg.Schedule)
	if !ok {
		return
	}
	since := now.Sub(l.lastPublish)
	if since < l.cfg.PublishGuard {
		log.Printf("device: skipping scheduled reading, too soon after last publish (%.1fs)", since.Seconds())
		return
	}
	log.Printf("device: time for %s readings", entry.Label)
	if !l.conn.EnsureConnected(ctx) {
		return
	}
	l.readAndPublish(entry.Label)
}

func (l *Loop) readAndPublish(period string) {
	r, err := readAll(l.sensor)
	if err != nil {
		log.Printf("device: %v, skipping cycle", err)
		return
	}
	env := l.env.Sample()
	l.lastEnv = env
	now := l.now()

	report := model.SensorReport{
		Period:              period,
		SoilMoisturePercent: r.Percent,
		SoilMoistureAnalog:  r.Analog,
		VoltageMV:           r.VoltageMV,
		IsDry:               r.Dry,
		Temp:                env.Temperature,
		Humidity:            env.AirHumidity,
		PH:                  env.SoilPH,
		Nitrogen:            env.NitrogenContent,
		Timestamp:           now.Unix(),
		PlantID:             l.cfg.PlantID,
	}
	if v, ok := l.monitor.Value(); ok {
		report.MoistureThreshold = &v
		if r.Percent > v {
			report.ThresholdStatus = "above"
		} else {
			report.ThresholdStatus = "below"
		}
		// a scheduled reading re-arms crossing detection
		l.monitor.ResetCrossReported()
	}

	if err := l.pub.Publish(model.TopicGetOptimalMoisture, report); err != nil {
		log.Printf("device: publish failed: %v", err)
	} else {
		l.lastPublish = now
	}

	scalars := []struct {
		suffix  string
		payload any
	}{
		{model.TopicCheckMoisture, r.Percent},
		{model.TopicTemperature, env.Temperature},
		{model.TopicAirHumidity, env.AirHumidity},
		{model.TopicNitrogen, env.NitrogenContent},
		{model.TopicSoilPH, env.SoilPH},
	}
	for _, s := range scalars {
		if err := l.pub.Publish(s.suffix, s.payload); err != nil {
			log.Printf("device: publish failed: %v", err)
		}
	}

	l.observe(r, now)
	log.Printf("device: %s readings published", period)
}

// checkThreshold runs the periodic moisture check while a threshold is
// active and the crossing has not been reported.
func (l *Loop) checkThreshold(ctx context.Context) {
	if !l.monitor.Active() || l.monitor.CrossReported() {
		return
	}
	now := l.now()
	if l.monitor.SecondsUntilNextCheck(now) > 0 {
		return
	}
	if !l.conn.EnsureConnected(ctx) {
		return
	}
	r, err := readAll(l.sensor)
	now = l.now()
	if err != nil {
		log.Printf("device: %v, skipping threshold check", err)
		l.monitor.MarkChecked(now)
		return
	}
	l.observe(r, now)
	if l.monitor.CheckCrossing(r.Percent) {
		log.Printf("device: threshold crossed, monitoring pauses until next scheduled reading")
	}
	l.monitor.MarkChecked(now)
}

// observe funnels a reading through the watering controller and
// publishes the completion record when a cycle closes.
func (l *Loop) observe(r Reading, now time.Time) {
	var thr *float64
	if v, ok := l.monitor.Value(); ok {
		thr = &v
	}
	evt := l.waterer.Observe(r.Percent, thr, l.lastEnv, now)
	if evt == nil {
		return
	}
	if err := l.pub.Publish(model.TopicMoistureAlert, evt); err != nil {
		log.Printf("device: publish watering record failed: %v", err)
	}
}

// sleepFor picks the next wake delay: the sooner of the next schedule
// entry and the next threshold check, bounded by the responsiveness
// ceiling.
func (l *Loop) sleepFor() time.Duration {
	now := l.now()
	wait, _ := NextEvent(now, l.cfg.Schedule)

	if l.monitor.Active() && !l.monitor.CrossReported() {
		secs := l.monitor.SecondsUntilNextCheck(now)
		if secs <= 0 {
			// overdue, come straight back
			return time.Second
		}
		if tc := time.Duration(secs * float64(time.Second)); tc < wait {
			wait = tc
		}
	}
	if wait > l.cfg.WakeCeiling {
		wait = l.cfg.WakeCeiling
	}
	if wait < time.Second {
		wait = time.Second
	}
	return wait
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
