package hrm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMeasurement(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Measurement
	}{
		{
			name: "uint8 heart rate",
			data: []byte{0x00, 72},
			want: Measurement{BPM: 72, EnergyExpended: -1},
		},
		{
			name: "uint16 heart rate",
			data: []byte{0x01, 0x2C, 0x01}, // 300 bpm, little endian
			want: Measurement{BPM: 300, EnergyExpended: -1},
		},
		{
			name: "energy expended",
			data: []byte{0x08, 68, 0x10, 0x00},
			want: Measurement{BPM: 68, EnergyExpended: 16},
		},
		{
			name: "rr intervals",
			data: []byte{0x10, 70, 0x00, 0x04, 0x20, 0x04}, // 1024, 1056
			want: Measurement{BPM: 70, EnergyExpended: -1, RRIntervals: []int{1024, 1056}},
		},
		{
			name: "energy and rr together",
			data: []byte{0x18, 65, 0x05, 0x00, 0x00, 0x04},
			want: Measurement{BPM: 65, EnergyExpended: 5, RRIntervals: []int{1024}},
		},
		{
			name: "trailing odd byte ignored in rr run",
			data: []byte{0x10, 70, 0x00, 0x04, 0xFF},
			want: Measurement{BPM: 70, EnergyExpended: -1, RRIntervals: []int{1024}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMeasurement(tt.data)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseMeasurementErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"flags only", []byte{0x00}},
		{"truncated uint16 bpm", []byte{0x01, 72}},
		{"truncated energy", []byte{0x08, 72, 0x10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMeasurement(tt.data)
			require.Error(t, err)
		})
	}
}
