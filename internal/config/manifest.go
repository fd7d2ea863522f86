package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SlotEntry pins one dashboard slot to a device key. A slot with an entry
// only accepts the named device; slots without an entry accept any device.
type SlotEntry struct {
	Slot         int    `yaml:"slot"`
	DeviceFilter string `yaml:"device_filter"`
}

// Manifest is the optional per-slot device manifest, e.g.
//
//	slots:
//	  - slot: 0
//	    device_filter: "A01B2C"
//	  - slot: 2
//	    device_filter: "Polar H10 5A2F"
type Manifest struct {
	Slots []SlotEntry `yaml:"slots"`
}

// LoadManifest parses a manifest file. numSlots bounds the valid slot range.
func LoadManifest(path string, numSlots int) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	for _, e := range m.Slots {
		if e.Slot < 0 || e.Slot >= numSlots {
			return Manifest{}, fmt.Errorf("manifest %s: slot %d out of range [0,%d)", path, e.Slot, numSlots)
		}
	}
	return m, nil
}

// Filter returns the device filter for a slot, empty if none is pinned.
func (m Manifest) Filter(slot int) string {
	for _, e := range m.Slots {
		if e.Slot == slot {
			return e.DeviceFilter
		}
	}
	return ""
}
