// Package ipc exposes the recording session on the D-Bus session bus and
// provides the client proxy the CLI talks through.
package ipc

// Service identity on the session bus.
const (
	BusName       = "org.tiroq.Screencastd"
	ObjectPath    = "/org/tiroq/Screencastd"
	InterfaceName = "org.tiroq.Screencastd"
)

// Named D-Bus errors returned by failed calls.
const (
	ErrNameAlreadyRecording = InterfaceName + ".Error.AlreadyRecording"
	ErrNameNotRecording     = InterfaceName + ".Error.NotRecording"
	ErrNameLaunchFailed     = InterfaceName + ".Error.LaunchFailed"
)

// Signal members emitted on lifecycle transitions.
const (
	SignalRecordingStarted = InterfaceName + ".RecordingStarted"
	SignalRecordingStopped = InterfaceName + ".RecordingStopped"
)
