package hrm

import (
	"encoding/binary"
	"fmt"
)

// Heart Rate Measurement (2a37) flag bits.
const (
	flagHRFormat16     = 1 << 0 // BPM is uint16, uint8 otherwise
	flagEnergyExpended = 1 << 3
	flagRRPresent      = 1 << 4
)

// Measurement is one decoded Heart Rate Measurement notification.
type Measurement struct {
	BPM            int
	EnergyExpended int   // kJ, -1 if not present
	RRIntervals    []int // 1/1024 s units, nil if not present
}

// ParseMeasurement decodes a Heart Rate Measurement value per the Bluetooth
// GATT specification: a flags byte, then BPM as uint8 or uint16 (little
// endian), optionally energy expended and RR intervals.
func ParseMeasurement(data []byte) (Measurement, error) {
	if len(data) < 2 {
		return Measurement{}, fmt.Errorf("measurement too short: %d bytes", len(data))
	}

	flags := data[0]
	offset := 1
	m := Measurement{EnergyExpended: -1}

	if flags&flagHRFormat16 != 0 {
		if len(data) < offset+2 {
			return Measurement{}, fmt.Errorf("truncated uint16 heart rate value")
		}
		m.BPM = int(binary.LittleEndian.Uint16(data[offset:]))
		offset += 2
	} else {
		m.BPM = int(data[offset])
		offset++
	}

	if flags&flagEnergyExpended != 0 {
		if len(data) < offset+2 {
			return Measurement{}, fmt.Errorf("truncated energy expended field")
		}
		m.EnergyExpended = int(binary.LittleEndian.Uint16(data[offset:]))
		offset += 2
	}

	if flags&flagRRPresent != 0 {
		for ; offset+2 <= len(data); offset += 2 {
			m.RRIntervals = append(m.RRIntervals, int(binary.LittleEndian.Uint16(data[offset:])))
		}
	}

	return m, nil
}
