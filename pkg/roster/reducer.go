package roster

import "github.com/cloudgroundcontrol/livekit-roster/pkg/participant"

// Reduce applies e to r and returns the next roster. It never fails: events
// naming participants the roster does not know, and events it does not
// understand, return r unchanged.
func Reduce(r Roster, e Event) Roster {
	switch e := e.(type) {
	case Joined:
		return join(r, e.Participant)
	case Seen:
		return seen(r, e.Participant)
	case Left:
		return leave(r, e.ID)
	case Updated:
		return update(r, e.ID, e.Local, e.Patch)
	case LoadableAvatarURLSet:
		return update(r, e.ID, e.Local, e.Patch)
	case DominantSpeakerChanged:
		return promote(r, e.ID, dominantSpeaker)
	case Pinned:
		return promote(r, e.ID, pinned)
	case IDChanged:
		return changeID(r, e)
	}
	return r
}

// ReduceAll folds events over r in order.
func ReduceAll(r Roster, events ...Event) Roster {
	for _, e := range events {
		r = Reduce(r, e)
	}
	return r
}

func join(r Roster, p participant.Participant) Roster {
	p = p.Normalize()
	if p.ID == "" {
		return r
	}
	// An id lives either in the local slot or among the remotes, never both.
	if p.Local {
		if _, ok := r.remote[p.ID]; ok {
			return r
		}
	} else if r.IsLocal(p.ID) {
		return r
	}

	next := r.clone()

	var replaced string
	if p.Local && next.local != nil {
		replaced = next.local.ID
	} else if !p.Local {
		if _, ok := next.remote[p.ID]; ok {
			replaced = p.ID
		}
	}
	if replaced != "" {
		if next.pinned == replaced && (replaced != p.ID || !p.Pinned) {
			next.pinned = ""
		}
		if next.dominantSpeaker == replaced && (replaced != p.ID || !p.DominantSpeaker) {
			next.dominantSpeaker = ""
		}
	}

	// A joining participant flagged as pinned takes the pointer without
	// unpinning whoever held it before.
	if p.Pinned {
		next.pinned = p.ID
	}
	if p.DominantSpeaker {
		next.dominantSpeaker = p.ID
	}

	if p.Local {
		next.local = &p
		return next
	}

	next.remote[p.ID] = p
	if p.IsFakeParticipant {
		next.fake[p.ID] = struct{}{}
	} else {
		delete(next.fake, p.ID)
	}
	return next
}

func seen(r Roster, p participant.Participant) Roster {
	if _, ok := r.remote[p.ID]; ok && !p.Local {
		return update(r, p.ID, false, p.AsPatch())
	}
	return join(r, p)
}

func leave(r Roster, id string) Roster {
	_, isRemote := r.remote[id]
	_, isFake := r.fake[id]
	isLocal := r.IsLocal(id)
	if id == "" || (!isRemote && !isFake && !isLocal && r.dominantSpeaker != id && r.pinned != id) {
		return r
	}

	next := r.clone()
	if next.dominantSpeaker == id {
		next.dominantSpeaker = ""
	}
	if next.pinned == id {
		next.pinned = ""
	}
	if isRemote {
		delete(next.remote, id)
	} else if isLocal {
		next.local = nil
	}
	delete(next.fake, id)
	return next
}

func update(r Roster, id string, local bool, patch participant.Patch) Roster {
	if id == "" && local {
		id = participant.LocalDefaultID
	}
	if id == "" {
		return r
	}

	if p, ok := r.remote[id]; ok {
		next := r.clone()
		merged := p.Merge(patch)
		next.remote[id] = merged
		if merged.IsFakeParticipant {
			next.fake[id] = struct{}{}
		} else {
			delete(next.fake, id)
		}
		return next
	}
	if r.IsLocal(id) {
		next := r.clone()
		merged := next.local.Merge(patch)
		next.local = &merged
		return next
	}
	return r
}

// role names one of the exclusive flags a roster tracks with a pointer.
type role int

const (
	dominantSpeaker role = iota
	pinned
)

func (r *Roster) holder(which role) *string {
	if which == dominantSpeaker {
		return &r.dominantSpeaker
	}
	return &r.pinned
}

// setFlag sets the flag on the participant named id, reporting whether the
// id resolved. The receiver must be a clone.
func (r *Roster) setFlag(id string, which role, value bool) bool {
	apply := func(p *participant.Participant) {
		if which == dominantSpeaker {
			p.DominantSpeaker = value
		} else {
			p.Pinned = value
		}
	}
	if p, ok := r.remote[id]; ok {
		apply(&p)
		r.remote[id] = p
		return true
	}
	if r.local != nil && r.local.ID == id {
		apply(r.local)
		return true
	}
	return false
}

// promote moves an exclusive flag to id. An id the roster does not know
// leaves the roster untouched, including the current holder.
func promote(r Roster, id string, which role) Roster {
	if _, ok := r.Get(id); !ok {
		return r
	}

	next := r.clone()
	holder := next.holder(which)
	if *holder != "" {
		// A stale holder no longer resolves; nothing to clear then.
		next.setFlag(*holder, which, false)
	}
	next.setFlag(id, which, true)
	*holder = id
	return next
}

func changeID(r Roster, e IDChanged) Roster {
	if r.local == nil || r.local.ID != e.OldValue || r.local.ConferenceRef != e.ConferenceRef {
		return r
	}
	if e.NewValue == "" || e.NewValue == e.OldValue {
		return r
	}
	if _, ok := r.remote[e.NewValue]; ok {
		return r
	}

	next := r.clone()
	next.local.ID = e.NewValue
	if next.dominantSpeaker == e.OldValue {
		next.dominantSpeaker = e.NewValue
	}
	if next.pinned == e.OldValue {
		next.pinned = e.NewValue
	}
	return next
}
