package scene

import (
	"time"
)

// State is the lifecycle position of a game object relative to a scene.
type State uint8

const (
	Unregistered State = iota
	PendingActivation
	Active
	PendingDeactivation
)

func (s State) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case PendingActivation:
		return "pending_activation"
	case Active:
		return "active"
	case PendingDeactivation:
		return "pending_deactivation"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of the scene taken between ticks.
type Stats struct {
	Scene               string        `json:"scene"`
	Frame               uint64        `json:"frame"`
	Live                int           `json:"live"`
	PendingActivation   int           `json:"pending_activation"`
	PendingDeactivation int           `json:"pending_deactivation"`
	Buckets             int           `json:"buckets"`
	Components          int           `json:"components"`
	LastTick            time.Duration `json:"last_tick"`
	Parallel            bool          `json:"parallel"`
}
