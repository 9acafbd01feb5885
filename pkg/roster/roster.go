// Package roster holds the participant registry of one conference and the
// pure transition function that moves it from one state to the next.
package roster

import (
	"maps"
	"slices"

	"github.com/cloudgroundcontrol/livekit-roster/pkg/participant"
)

// Roster is an immutable snapshot. Reduce never modifies the roster it is
// given, so a Roster can be shared freely between goroutines.
type Roster struct {
	local           *participant.Participant
	remote          map[string]participant.Participant
	fake            map[string]struct{}
	dominantSpeaker string
	pinned          string
}

func New() Roster {
	return Roster{
		remote: make(map[string]participant.Participant),
		fake:   make(map[string]struct{}),
	}
}

func (r Roster) Local() (participant.Participant, bool) {
	if r.local == nil {
		return participant.Participant{}, false
	}
	return *r.local, true
}

func (r Roster) Remote(id string) (participant.Participant, bool) {
	p, ok := r.remote[id]
	return p, ok
}

// Get looks the id up in the remote participants first, then in the local
// slot.
func (r Roster) Get(id string) (participant.Participant, bool) {
	if p, ok := r.remote[id]; ok {
		return p, true
	}
	if r.local != nil && r.local.ID == id {
		return *r.local, true
	}
	return participant.Participant{}, false
}

func (r Roster) IsLocal(id string) bool {
	return r.local != nil && r.local.ID == id
}

func (r Roster) RemoteIDs() []string {
	return slices.Sorted(maps.Keys(r.remote))
}

// Remotes returns the remote participants ordered by id.
func (r Roster) Remotes() []participant.Participant {
	ids := r.RemoteIDs()
	out := make([]participant.Participant, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.remote[id])
	}
	return out
}

func (r Roster) FakeParticipantIDs() []string {
	return slices.Sorted(maps.Keys(r.fake))
}

func (r Roster) IsFakeParticipant(id string) bool {
	_, ok := r.fake[id]
	return ok
}

func (r Roster) DominantSpeakerID() (string, bool) {
	return r.dominantSpeaker, r.dominantSpeaker != ""
}

func (r Roster) PinnedID() (string, bool) {
	return r.pinned, r.pinned != ""
}

// Len counts the local participant, if any, and every remote one.
func (r Roster) Len() int {
	n := len(r.remote)
	if r.local != nil {
		n++
	}
	return n
}

// clone copies the collections so the receiver can be modified without
// touching the source roster.
func (r Roster) clone() Roster {
	next := r
	next.remote = make(map[string]participant.Participant, len(r.remote))
	maps.Copy(next.remote, r.remote)
	next.fake = make(map[string]struct{}, len(r.fake))
	maps.Copy(next.fake, r.fake)
	if r.local != nil {
		local := *r.local
		next.local = &local
	}
	return next
}
