package messages

import (
	"fmt"
	"strconv"
	"strings"
)

// TrackerRole is the body position a tracker is attached to.
type TrackerRole int32

const (
	RoleNone              TrackerRole = 0
	RoleWaist             TrackerRole = 1
	RoleLeftFoot          TrackerRole = 2
	RoleRightFoot         TrackerRole = 3
	RoleChest             TrackerRole = 4
	RoleLeftKnee          TrackerRole = 5
	RoleRightKnee         TrackerRole = 6
	RoleLeftElbow         TrackerRole = 7
	RoleRightElbow        TrackerRole = 8
	RoleLeftShoulder      TrackerRole = 9
	RoleRightShoulder     TrackerRole = 10
	RoleLeftHand          TrackerRole = 11
	RoleRightHand         TrackerRole = 12
	RoleLeftController    TrackerRole = 13
	RoleRightController   TrackerRole = 14
	RoleHead              TrackerRole = 15
	RoleNeck              TrackerRole = 16
	RoleCamera            TrackerRole = 17
	RoleKeyboard          TrackerRole = 18
	RoleHMD               TrackerRole = 19
	RoleBeacon            TrackerRole = 20
	RoleGenericController TrackerRole = 21
)

var roleNames = [...]string{
	"NONE",
	"WAIST",
	"LEFT_FOOT",
	"RIGHT_FOOT",
	"CHEST",
	"LEFT_KNEE",
	"RIGHT_KNEE",
	"LEFT_ELBOW",
	"RIGHT_ELBOW",
	"LEFT_SHOULDER",
	"RIGHT_SHOULDER",
	"LEFT_HAND",
	"RIGHT_HAND",
	"LEFT_CONTROLLER",
	"RIGHT_CONTROLLER",
	"HEAD",
	"NECK",
	"CAMERA",
	"KEYBOARD",
	"HMD",
	"BEACON",
	"GENERIC_CONTROLLER",
}

func (r TrackerRole) String() string {
	if r >= 0 && int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "TrackerRole(" + strconv.Itoa(int(r)) + ")"
}

// ParseTrackerRole accepts a role name in any case, with either dashes or
// underscores, or its numeric value.
func ParseTrackerRole(s string) (TrackerRole, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for i, n := range roleNames {
		if n == name {
			return TrackerRole(i), nil
		}
	}
	if v, err := strconv.Atoi(name); err == nil && v >= 0 && v < len(roleNames) {
		return TrackerRole(v), nil
	}
	return RoleNone, fmt.Errorf("unknown tracker role %q", s)
}
