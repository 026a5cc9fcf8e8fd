package bridge

import "github.com/Zereker/vrbridge/messages"

// DefaultTrackerName is the display name AddTracker gives every tracker.
const DefaultTrackerName = "External Tracker"

// AddTracker registers a tracker with the consumer under DefaultTrackerName.
func (s *Session) AddTracker(id int32, serial string, role messages.TrackerRole) error {
	return s.AddNamedTracker(id, serial, DefaultTrackerName, role)
}

// AddNamedTracker registers a tracker with an explicit display name.
func (s *Session) AddNamedTracker(id int32, serial, name string, role messages.TrackerRole) error {
	return s.Send(messages.Wrap(&messages.TrackerAdded{
		TrackerID:     id,
		TrackerSerial: serial,
		TrackerName:   name,
		TrackerRole:   role,
	}))
}

// SendPosition sends a pose update.
func (s *Session) SendPosition(id int32, x, y, z, qx, qy, qz, qw float32) error {
	return s.Send(messages.Wrap(&messages.Position{
		TrackerID: id,
		X:         x,
		Y:         y,
		Z:         z,
		Qx:        qx,
		Qy:        qy,
		Qz:        qz,
		Qw:        qw,
	}))
}

// SendStatus reports a tracker's status.
func (s *Session) SendStatus(id int32, status messages.Status, confidence messages.Confidence) error {
	return s.Send(messages.Wrap(&messages.TrackerStatus{
		TrackerID:  id,
		Status:     status,
		Confidence: confidence,
	}))
}
