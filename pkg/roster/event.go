package roster

import "github.com/cloudgroundcontrol/livekit-roster/pkg/participant"

// Event is a transition request understood by Reduce.
type Event interface {
	eventType() string
}

// Joined adds a participant. Joining an id that is already known overwrites
// the previous entry.
type Joined struct {
	Participant participant.Participant
}

// Seen reports a remote participant present in the room. It joins an
// unknown participant and updates a known one, so repeated reports of the
// same join from several sources keep its pin and dominant speaker flags.
type Seen struct {
	Participant participant.Participant
}

// Left removes a participant.
type Left struct {
	ID string
}

// Updated merges the non-protected fields of Patch into the participant
// named by ID, or into the local participant when ID is empty and Local is
// set.
type Updated struct {
	ID    string
	Local bool
	Patch participant.Patch
}

// LoadableAvatarURLSet behaves exactly like Updated.
type LoadableAvatarURLSet struct {
	ID    string
	Local bool
	Patch participant.Patch
}

type DominantSpeakerChanged struct {
	ID string
}

type Pinned struct {
	ID string
}

// IDChanged rewrites the local participant's id once the conferencing
// engine has assigned one.
type IDChanged struct {
	ConferenceRef string
	OldValue      string
	NewValue      string
}

func (Joined) eventType() string                 { return "participant_joined" }
func (Seen) eventType() string                   { return "participant_seen" }
func (Left) eventType() string                   { return "participant_left" }
func (Updated) eventType() string                { return "participant_updated" }
func (LoadableAvatarURLSet) eventType() string   { return "loadable_avatar_url_set" }
func (DominantSpeakerChanged) eventType() string { return "dominant_speaker_changed" }
func (Pinned) eventType() string                 { return "participant_pinned" }
func (IDChanged) eventType() string              { return "participant_id_changed" }

// Type names the event, for logs.
func Type(e Event) string {
	if e == nil {
		return ""
	}
	return e.eventType()
}
