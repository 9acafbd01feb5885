package participant

import "time"

// ParticipantData is the attendance record of one participant in a room.
// End stays zero while the participant is still present.
type ParticipantData struct {
	Identity    string    `json:"identity"`
	DisplayName string    `json:"displayName,omitempty"`
	Local       bool      `json:"local,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end,omitzero"`
}
