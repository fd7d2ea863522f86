package orchestrator

import (
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/vitals/internal/uplink"
)

// SlotRecords is the per-slot upload counter state shown in the records
// column. Total only ever grows; a failure sets Failed without touching it.
type SlotRecords struct {
	Total      int
	LastUpdate time.Time
	Failed     bool
}

// ServerLine is the status-line state for the remote streaming endpoint.
type ServerLine struct {
	Status    uplink.ServerStatus
	LastEvent uplink.Event // zero Topic until the first event
	LastTopic string       // condensed topic of the last event
}

// aggregator folds out-of-band upload events into per-slot counters and the
// server status line. Owned by the hub worker; no locking needed.
type aggregator struct {
	records [NumSlots]SlotRecords
	server  ServerLine
	logger  *logrus.Logger
}

func newAggregator(logger *logrus.Logger) *aggregator {
	return &aggregator{
		server: ServerLine{Status: uplink.ServerReady},
		logger: logger,
	}
}

// vendorPrefix matches the platform tag embedded in raw topic names,
// e.g. "android_phone_acceleration".
var vendorPrefix = regexp.MustCompile(`_?android_?`)

// condenseTopic strips the platform tag from a raw topic name so the slot
// matching and the status line work on the short form.
func condenseTopic(topic string) string {
	loc := vendorPrefix.FindStringIndex(topic)
	if loc == nil {
		return topic
	}
	return topic[:loc[0]] + topic[loc[1]:]
}

// slotForTopic maps a condensed topic to its dashboard slot by substring
// match on the known source tags. Returns -1 for unknown topics.
//
// Substring matching is fragile on unexpected topic formats; it mirrors how
// the upstream topics are named and unknown keys are dropped, not guessed.
func slotForTopic(topic string) int {
	switch {
	case strings.Contains(topic, "wrist"):
		return SlotWrist
	case strings.Contains(topic, "chest"):
		return SlotChest
	case strings.Contains(topic, "phone"):
		return SlotPhone
	default:
		return -1
	}
}

// onEvent folds one upload event. Unmatched topics are logged and dropped.
func (a *aggregator) onEvent(ev uplink.Event) {
	topic := condenseTopic(ev.Topic)

	when := ev.Time
	if when.IsZero() {
		when = time.Now()
	}

	a.server.LastEvent = ev
	a.server.LastTopic = topic
	if ev.Failed() {
		a.server.Status = uplink.ServerUploadingFailed
		a.logger.WithField("topic", topic).Warn("Upload failed")
	} else {
		a.server.Status = uplink.ServerConnected
		a.logger.WithFields(logrus.Fields{
			"topic":   topic,
			"records": ev.Records,
		}).Info("Records uploaded")
	}

	index := slotForTopic(topic)
	if index < 0 {
		a.logger.WithField("topic", topic).Info("Could not match topic to a dashboard slot")
		return
	}

	r := &a.records[index]
	if ev.Failed() {
		r.Failed = true
	} else {
		r.Failed = false
		r.Total += ev.Records
	}
	r.LastUpdate = when
}

// setServerStatus records an out-of-band server status change.
func (a *aggregator) setServerStatus(status uplink.ServerStatus) {
	a.server.Status = status
}

// serverLine returns a copy of the status-line state.
func (a *aggregator) serverLine() ServerLine {
	return a.server
}
