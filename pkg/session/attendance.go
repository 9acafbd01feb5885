package session

import (
	"time"

	"github.com/cloudgroundcontrol/livekit-roster/pkg/participant"
	"github.com/cloudgroundcontrol/livekit-roster/pkg/roster"
)

// attendance keeps one record per stay: a participant who leaves and joins
// again gets a second record.
type attendance struct {
	history []participant.ParticipantData

	// Key: participant id, value: index into history
	open map[string]int
}

func newAttendance() *attendance {
	return &attendance{open: make(map[string]int)}
}

func (a *attendance) observe(prev, next roster.Roster, e roster.Event, at time.Time) {
	if changed, ok := e.(roster.IDChanged); ok {
		if idx, found := a.open[changed.OldValue]; found && next.IsLocal(changed.NewValue) && !prev.IsLocal(changed.NewValue) {
			delete(a.open, changed.OldValue)
			a.open[changed.NewValue] = idx
			a.history[idx].Identity = changed.NewValue
		}
	}

	present := next.Remotes()
	if local, ok := next.Local(); ok {
		present = append(present, local)
	}

	seen := make(map[string]struct{}, len(present))
	for _, p := range present {
		seen[p.ID] = struct{}{}
		if idx, found := a.open[p.ID]; found {
			a.history[idx].DisplayName = p.DisplayName
			continue
		}
		a.open[p.ID] = len(a.history)
		a.history = append(a.history, participant.ParticipantData{
			Identity:    p.ID,
			DisplayName: p.DisplayName,
			Local:       p.Local,
			Start:       at,
		})
	}

	for id, idx := range a.open {
		if _, ok := seen[id]; !ok {
			a.history[idx].End = at
			delete(a.open, id)
		}
	}
}

func (a *attendance) closeAll(at time.Time) {
	for id, idx := range a.open {
		a.history[idx].End = at
		delete(a.open, id)
	}
}

func (a *attendance) records() []participant.ParticipantData {
	out := make([]participant.ParticipantData, len(a.history))
	copy(out, a.history)
	return out
}
