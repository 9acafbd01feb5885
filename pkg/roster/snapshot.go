package roster

import "github.com/cloudgroundcontrol/livekit-roster/pkg/participant"

// Snapshot is the serialisable view of a Roster.
type Snapshot struct {
	Local             *participant.Participant  `json:"local"`
	Remote            []participant.Participant `json:"remote"`
	DominantSpeakerID string                    `json:"dominantSpeaker,omitempty"`
	PinnedID          string                    `json:"pinnedParticipant,omitempty"`
	FakeParticipants  []string                  `json:"fakeParticipants"`
}

func (r Roster) Snapshot() Snapshot {
	s := Snapshot{
		Remote:            r.Remotes(),
		DominantSpeakerID: r.dominantSpeaker,
		PinnedID:          r.pinned,
		FakeParticipants:  r.FakeParticipantIDs(),
	}
	if local, ok := r.Local(); ok {
		s.Local = &local
	}
	return s
}
