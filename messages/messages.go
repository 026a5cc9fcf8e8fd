// Package messages defines the typed records exchanged over the bridge and
// their protobuf wire encoding.
//
// The field numbers match the consumer's ProtobufMessages.proto schema, so
// an Envelope encoded here decodes with the generated code on the other end
// and vice versa. Unknown fields are skipped on decode.
package messages

import "strconv"

// Payload is one variant of the Envelope oneof.
type Payload interface {
	isPayload()
}

// Envelope wraps exactly one Payload. An Envelope with a nil Payload encodes
// to zero bytes.
type Envelope struct {
	Payload Payload
}

// Wrap returns an Envelope carrying p.
func Wrap(p Payload) *Envelope {
	return &Envelope{Payload: p}
}

// Position is a pose update for a tracker. Coordinates are in meters,
// rotation is a unit quaternion.
type Position struct {
	TrackerID  int32
	X, Y, Z    float32
	Qx, Qy, Qz float32
	Qw         float32
	DataSource DataSource
}

// UserAction is sent by the consumer to request an action such as a reset.
type UserAction struct {
	Name      string
	Arguments map[string]string
}

// TrackerAdded registers a tracker with the consumer.
type TrackerAdded struct {
	TrackerID     int32
	TrackerSerial string
	TrackerName   string
	TrackerRole   TrackerRole
}

// TrackerStatus reports the health of a tracker.
type TrackerStatus struct {
	TrackerID  int32
	Status     Status
	Confidence Confidence
}

func (*Position) isPayload()      {}
func (*UserAction) isPayload()    {}
func (*TrackerAdded) isPayload()  {}
func (*TrackerStatus) isPayload() {}

// Kind returns the name of the payload variant, or "empty".
func (e *Envelope) Kind() string {
	if e == nil {
		return "empty"
	}
	switch e.Payload.(type) {
	case *Position:
		return "position"
	case *UserAction:
		return "user_action"
	case *TrackerAdded:
		return "tracker_added"
	case *TrackerStatus:
		return "tracker_status"
	default:
		return "empty"
	}
}

// Status is the state reported in a TrackerStatus.
type Status int32

const (
	StatusDisconnected Status = 0
	StatusOK           Status = 1
	StatusBusy         Status = 2
	StatusError        Status = 3
	StatusOccluded     Status = 4
)

var statusNames = map[Status]string{
	StatusDisconnected: "DISCONNECTED",
	StatusOK:           "OK",
	StatusBusy:         "BUSY",
	StatusError:        "ERROR",
	StatusOccluded:     "OCCLUDED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

// Confidence is the tracking confidence reported in a TrackerStatus.
type Confidence int32

const (
	ConfidenceNo     Confidence = 0
	ConfidenceLow    Confidence = 1
	ConfidenceMedium Confidence = 5
	ConfidenceHigh   Confidence = 10
)

var confidenceNames = map[Confidence]string{
	ConfidenceNo:     "NO",
	ConfidenceLow:    "LOW",
	ConfidenceMedium: "MEDIUM",
	ConfidenceHigh:   "HIGH",
}

func (c Confidence) String() string {
	if name, ok := confidenceNames[c]; ok {
		return name
	}
	return "Confidence(" + strconv.Itoa(int(c)) + ")"
}

// DataSource describes where a Position came from.
type DataSource int32

const (
	DataSourceNone      DataSource = 0
	DataSourceIMU       DataSource = 1
	DataSourcePrecision DataSource = 2
	DataSourceFull      DataSource = 3
)

func (d DataSource) String() string {
	switch d {
	case DataSourceNone:
		return "NONE"
	case DataSourceIMU:
		return "IMU"
	case DataSourcePrecision:
		return "PRECISION"
	case DataSourceFull:
		return "FULL"
	}
	return "DataSource(" + strconv.Itoa(int(d)) + ")"
}
