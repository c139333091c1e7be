package model

import "encoding/json"

// Socket event names.
const (
	EventStatsUpdate        = "statsUpdate"
	EventCharacterCreated   = "characterCreated"
	EventToggleAutoGenerate = "toggleAutoGenerate"
	EventRequestStats       = "requestStats"
	EventError              = "error"
)

// Frame is the envelope exchanged on the socket channel.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewFrame encodes data into a frame for event.
func NewFrame(event string, data any) (Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Data: raw}, nil
}
