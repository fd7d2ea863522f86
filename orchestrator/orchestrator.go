// Package orchestrator coordinates the hub's fixed device slots: it binds
// each slot's sensor source, polls bound slots for snapshots on a fixed
// cadence, folds upload events into per-slot counters and publishes an
// immutable frame per tick for rendering.
//
// All slot state is owned by a single worker goroutine; external calls
// enqueue tasks onto its queue and never touch slots directly.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/vitals/internal/config"
	"github.com/srg/vitals/internal/groutine"
	"github.com/srg/vitals/internal/ringchan"
	"github.com/srg/vitals/internal/sensor"
	"github.com/srg/vitals/internal/uplink"
)

// NumSlots is the fixed size of the dashboard: one row per slot.
const NumSlots = 4

// Slot assignments, fixed by the dashboard layout. Slot 1 is reserved for a
// second wearable and stays empty.
const (
	SlotWrist    = 0
	SlotReserved = 1
	SlotChest    = 2
	SlotPhone    = 3
)

// slot is one registry entry. Owned exclusively by the worker goroutine.
type slot struct {
	source       sensor.Source // nil for the reserved slot
	bound        bool
	deviceFilter string
	snapshot     sensor.Snapshot
}

// Frame is the immutable per-tick view handed to the renderer. It carries
// value copies only; the worker retains nothing that aliases it.
type Frame struct {
	Snapshots [NumSlots]sensor.Snapshot
	Records   [NumSlots]SlotRecords
	Server    ServerLine
	Condensed bool
	Taken     time.Time
}

// Options configures a Hub.
type Options struct {
	PollInterval  time.Duration `default:"1s"`
	CallTimeout   time.Duration `default:"2s"`
	TaskQueueCap  int           `default:"32"`
	EventQueueCap int           `default:"64"`
	Logger        *logrus.Logger
	Config        *config.Store // optional, used to build bind bundles
}

// Hub is the multi-slot connection orchestrator.
type Hub struct {
	opts   Options
	logger *logrus.Logger

	slots  [NumSlots]*slot
	agg    *aggregator
	events *ringchan.Ring[uplink.Event]
	tasks  chan func()
	frames *ringchan.Ring[Frame]

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Hub with one source per slot; a nil source leaves the slot
// reserved. Sources are not bound until BindAll.
func New(opts Options, sources [NumSlots]sensor.Source) *Hub {
	defaults.SetDefaults(&opts)
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	h := &Hub{
		opts:   opts,
		logger: opts.Logger,
		agg:    newAggregator(opts.Logger),
		events: ringchan.New[uplink.Event](opts.EventQueueCap),
		tasks:  make(chan func(), opts.TaskQueueCap),
		frames: ringchan.New[Frame](1),
		done:   make(chan struct{}),
		ctx:    context.Background(),
	}
	for i := range h.slots {
		h.slots[i] = &slot{
			source:   sources[i],
			snapshot: sensor.EmptySnapshot(),
		}
	}
	return h
}

// SetDeviceFilter pins a slot to a device key before Start. A connecting
// device whose name does not contain the key is rejected and the slot
// rebound.
func (h *Hub) SetDeviceFilter(index int, key string) {
	if index < 0 || index >= NumSlots {
		return
	}
	h.slots[index].deviceFilter = key
}

// ApplyManifest applies per-slot device filters from a manifest.
func (h *Hub) ApplyManifest(m config.Manifest) {
	for i := 0; i < NumSlots; i++ {
		if f := m.Filter(i); f != "" {
			h.SetDeviceFilter(i, f)
		}
	}
}

// Events returns the out-of-band event queue. The uplink batcher publishes
// here; the worker drains it.
func (h *Hub) Events() *ringchan.Ring[uplink.Event] {
	return h.events
}

// Frames returns the rendered-frame channel. At most one frame is buffered;
// a slow consumer only ever sees the latest tick.
func (h *Hub) Frames() <-chan Frame {
	return h.frames.C()
}

// Start launches the worker and schedules the first bind. It returns
// immediately; Stop tears everything down.
func (h *Hub) Start(ctx context.Context) {
	h.ctx, h.cancel = context.WithCancel(ctx)

	groutine.Go(h.ctx, "hub-worker", func(ctx context.Context) {
		h.worker(ctx)
	})
	h.BindAll()
}

// Stop cancels the worker and unbinds all bound slots. It blocks until the
// worker has exited.
func (h *Hub) Stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
}

// BindAll schedules a bind of every unbound slot. Idempotent: bound slots
// are skipped.
func (h *Hub) BindAll() {
	h.enqueue(h.bindAll)
}

// PollTick schedules an immediate poll of all bound slots, in addition to
// the fixed cadence.
func (h *Hub) PollTick() {
	h.enqueue(h.pollTick)
}

// OnSlotDisconnected marks a slot unbound and schedules a rebind. Called
// from source notification watchers; safe from any goroutine.
func (h *Hub) OnSlotDisconnected(index int) {
	if index < 0 || index >= NumSlots {
		return
	}
	h.enqueue(func() {
		s := h.slots[index]
		if !s.bound {
			return
		}
		h.unbindSlot(index)
		h.bindAll()
	})
}

// OnUploadEvent folds an upload event into the per-slot counters. The
// batcher path goes through Events(); this entry point serves collaborators
// that deliver events directly.
func (h *Hub) OnUploadEvent(ev uplink.Event) {
	h.enqueue(func() { h.agg.onEvent(ev) })
}

// SetServerStatus records an out-of-band server status change.
func (h *Hub) SetServerStatus(status uplink.ServerStatus) {
	h.enqueue(func() { h.agg.setServerStatus(status) })
}

// Reconfigure re-reads the config store and applies a changed poll interval
// to the running cadence. No-op without a config store.
func (h *Hub) Reconfigure() {
	if h.opts.Config == nil {
		return
	}
	h.enqueue(func() {
		cfg := h.opts.Config.Current()
		if cfg.PollInterval > 0 && cfg.PollInterval != h.opts.PollInterval {
			h.logger.WithField("poll_interval", cfg.PollInterval).Info("Poll interval updated")
			h.opts.PollInterval = cfg.PollInterval
			// The worker resets its ticker when it sees the new interval.
		}
		if cfg.CallTimeout > 0 {
			h.opts.CallTimeout = cfg.CallTimeout
		}
	})
}

// enqueue posts a task to the worker, dropping it if the hub is stopping.
// Before Start the registry is still single-goroutine, so tasks run inline.
func (h *Hub) enqueue(task func()) {
	if h.cancel == nil {
		task()
		return
	}
	select {
	case h.tasks <- task:
	case <-h.ctx.Done():
	}
}

// worker drains the task queue, the poll ticker and the event queue
// serially. It is the only goroutine that touches slot state.
func (h *Hub) worker(ctx context.Context) {
	defer close(h.done)

	interval := h.opts.PollInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case task := <-h.tasks:
			task()
			if h.opts.PollInterval != interval {
				interval = h.opts.PollInterval
				ticker.Reset(interval)
			}
		case <-ticker.C:
			h.pollTick()
		case ev := <-h.events.C():
			h.agg.onEvent(ev)
		}
	}
}

// shutdown releases all slot bindings. Runs on the worker.
func (h *Hub) shutdown() {
	for i := range h.slots {
		if h.slots[i].bound {
			h.unbindSlot(i)
		}
	}
}

// bindAll binds every unbound non-reserved slot, marking it bound
// optimistically. Connection progress arrives via the source's notification
// channel. Runs on the worker.
func (h *Hub) bindAll() {
	for i, s := range h.slots {
		if s.source == nil || s.bound {
			continue
		}

		cfg := h.bindConfig(s)
		if err := s.source.Bind(h.ctx, cfg); err != nil {
			h.logger.WithError(err).WithField("slot", i).Error("Failed to bind slot")
			continue
		}
		s.bound = true
		h.watchNotifications(i, s.source)

		h.logger.WithFields(logrus.Fields{
			"slot":   i,
			"source": s.source.Name(),
		}).Info("Slot bound")
	}
}

// bindConfig merges the global configuration keys into the per-bind bundle.
func (h *Hub) bindConfig(s *slot) sensor.Config {
	cfg := sensor.Config{
		DeviceFilter: s.deviceFilter,
		CallTimeout:  h.opts.CallTimeout,
		Settings:     map[string]string{},
	}
	if h.opts.Config != nil {
		c := h.opts.Config.Current()
		cfg.GroupID = c.GroupID
		cfg.UploadInterval = c.UploadInterval
		cfg.Settings["api_key"] = c.Wrist.APIKey
		cfg.Settings["chest_address"] = c.Chest.Address
		if c.Chest.ConnectTimeout > 0 {
			cfg.Settings["chest_connect_timeout"] = c.Chest.ConnectTimeout.String()
		}
	}
	return cfg
}

// unbindSlot releases one slot's binding. Runs on the worker.
func (h *Hub) unbindSlot(index int) {
	s := h.slots[index]
	if err := s.source.Unbind(); err != nil {
		h.logger.WithError(err).WithField("slot", index).Warn("Failed to unbind slot")
	}
	s.bound = false
	s.snapshot = sensor.EmptySnapshot()
}

// watchNotifications forwards a source's async status changes to the worker.
// The watcher exits when the source closes its channel on unbind.
func (h *Hub) watchNotifications(index int, src sensor.Source) {
	ch := src.Notifications()
	if ch == nil {
		return
	}
	groutine.Go(h.ctx, "slot-watch", func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-ch:
				if !ok {
					return
				}
				h.onStatusChange(index, change)
			}
		}
	})
}

// onStatusChange reacts to one async status change. Safe from any goroutine.
func (h *Hub) onStatusChange(index int, change sensor.StatusChange) {
	h.logger.WithFields(logrus.Fields{
		"slot":   index,
		"status": change.Status,
		"device": change.DeviceName,
	}).Debug("Slot status changed")

	switch change.Status {
	case sensor.Connecting:
		h.enqueue(func() { h.checkDeviceFilter(index, change.DeviceName) })
	case sensor.Disconnected:
		h.OnSlotDisconnected(index)
	}
}

// checkDeviceFilter rejects a connecting device that does not match the
// slot's pinned key, then rebinds so the slot resumes searching. Runs on
// the worker.
func (h *Hub) checkDeviceFilter(index int, deviceName string) {
	s := h.slots[index]
	if !s.bound || s.deviceFilter == "" || deviceName == "" {
		return
	}
	if allowedDevice(deviceName, s.deviceFilter) {
		return
	}

	h.logger.WithFields(logrus.Fields{
		"slot":   index,
		"device": deviceName,
		"filter": s.deviceFilter,
	}).Warn("Device rejected by slot filter")
	h.unbindSlot(index)
	h.bindAll()
}

// allowedDevice reports whether a device name satisfies a slot filter: the
// exact serial, or a case-insensitive substring of the advertised name.
func allowedDevice(name, filter string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(filter))
}

// pollTick asks each bound slot for a snapshot with a per-call timeout and
// publishes the resulting frame. A failing slot is rendered disconnected for
// this tick and never aborts the remaining slots. Runs on the worker.
func (h *Hub) pollTick() {
	for i, s := range h.slots {
		if s.source == nil || !s.bound {
			s.snapshot = sensor.EmptySnapshot()
			continue
		}

		callCtx, cancel := context.WithTimeout(h.ctx, h.opts.CallTimeout)
		snap, err := s.source.Snapshot(callCtx)
		cancel()

		if err != nil {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"slot":   i,
				"source": s.source.Name(),
			}).Warn("Failed to poll slot")
			s.snapshot = sensor.EmptySnapshot()
			continue
		}
		s.snapshot = snap
	}

	h.frames.Send(h.buildFrame())
}

// buildFrame copies the current registry view into an immutable frame.
func (h *Hub) buildFrame() Frame {
	f := Frame{
		Server: h.agg.serverLine(),
		Taken:  time.Now(),
	}
	if h.opts.Config != nil {
		f.Condensed = h.opts.Config.Current().CondensedDisplay
	} else {
		f.Condensed = true
	}
	for i, s := range h.slots {
		f.Snapshots[i] = s.snapshot
		f.Records[i] = h.agg.records[i]
	}
	return f
}
