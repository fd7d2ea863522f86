// Package uplink carries the record-upload side channel of the hub: events
// reporting how many records each source topic shipped to the streaming
// endpoint, and the server status derived from them. The transport itself is
// an external collaborator; the hub only consumes its event shapes.
package uplink

import "time"

// Event reports the outcome of one upload batch for a topic.
// A negative Records value is the failure sentinel: the batch could not be
// uploaded. It is rendered as a failure, never subtracted from totals.
type Event struct {
	Topic   string
	Records int
	Time    time.Time
}

// Failed reports whether the event carries the upload-failure sentinel.
func (e Event) Failed() bool {
	return e.Records < 0
}

// ServerStatus represents the state of the remote streaming endpoint.
type ServerStatus int

const (
	ServerDisconnected ServerStatus = iota
	ServerConnecting
	ServerConnected
	ServerReady
	ServerUploading
	ServerUploadingFailed
	ServerDisabled
)

func (s ServerStatus) String() string {
	switch s {
	case ServerDisconnected:
		return "DISCONNECTED"
	case ServerConnecting:
		return "CONNECTING"
	case ServerConnected:
		return "CONNECTED"
	case ServerReady:
		return "READY"
	case ServerUploading:
		return "UPLOADING"
	case ServerUploadingFailed:
		return "UPLOADING_FAILED"
	case ServerDisabled:
		return "DISABLED"
	default:
		return "UNKNOWN"
	}
}
