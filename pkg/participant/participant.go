package participant

// LocalDefaultID identifies the local participant until the conferencing
// engine assigns it a stable id.
const LocalDefaultID = "local"

type Participant struct {
	ID                string           `json:"id"`
	DisplayName       string           `json:"displayName,omitempty"`
	AvatarURL         string           `json:"avatarUrl,omitempty"`
	LoadableAvatarURL string           `json:"loadableAvatarUrl,omitempty"`
	Email             string           `json:"email,omitempty"`
	BotType           string           `json:"botType,omitempty"`
	Presence          string           `json:"presence,omitempty"`
	Role              Role             `json:"role"`
	Local             bool             `json:"local"`
	ConferenceRef     string           `json:"conference,omitempty"`
	DominantSpeaker   bool             `json:"dominantSpeaker"`
	Pinned            bool             `json:"pinned"`
	ConnectionStatus  ConnectionStatus `json:"connectionStatus,omitempty"`
	IsFakeParticipant bool             `json:"isFakeParticipant,omitempty"`
	IsReplacing       bool             `json:"isReplacing,omitempty"`
	IsJigasi          bool             `json:"isJigasi,omitempty"`
}

// Normalize fills the defaults a freshly joined participant must carry.
// A local participant without an id gets LocalDefaultID and is never
// scoped to a conference.
func (p Participant) Normalize() Participant {
	if p.Role == "" {
		p.Role = RoleNone
	}
	if p.Local {
		p.ConferenceRef = ""
		if p.ID == "" {
			p.ID = LocalDefaultID
		}
	}
	return p
}

// Patch is a partial participant. Nil fields are left untouched by Merge.
type Patch struct {
	ID                *string           `json:"id,omitempty"`
	DisplayName       *string           `json:"displayName,omitempty"`
	AvatarURL         *string           `json:"avatarUrl,omitempty"`
	LoadableAvatarURL *string           `json:"loadableAvatarUrl,omitempty"`
	Email             *string           `json:"email,omitempty"`
	BotType           *string           `json:"botType,omitempty"`
	Presence          *string           `json:"presence,omitempty"`
	Role              *Role             `json:"role,omitempty"`
	Local             *bool             `json:"local,omitempty"`
	ConferenceRef     *string           `json:"conference,omitempty"`
	DominantSpeaker   *bool             `json:"dominantSpeaker,omitempty"`
	Pinned            *bool             `json:"pinned,omitempty"`
	ConnectionStatus  *ConnectionStatus `json:"connectionStatus,omitempty"`
	IsFakeParticipant *bool             `json:"isFakeParticipant,omitempty"`
	IsReplacing       *bool             `json:"isReplacing,omitempty"`
	IsJigasi          *bool             `json:"isJigasi,omitempty"`
}

// Merge copies the patch onto p, skipping the fields that identify a
// participant (ID, Local, ConferenceRef) and the ones owned by dedicated
// transitions (DominantSpeaker, Pinned).
func (p Participant) Merge(patch Patch) Participant {
	setString(&p.DisplayName, patch.DisplayName)
	setString(&p.AvatarURL, patch.AvatarURL)
	setString(&p.LoadableAvatarURL, patch.LoadableAvatarURL)
	setString(&p.Email, patch.Email)
	setString(&p.BotType, patch.BotType)
	setString(&p.Presence, patch.Presence)
	if patch.Role != nil {
		p.Role = *patch.Role
	}
	if patch.ConnectionStatus != nil {
		p.ConnectionStatus = *patch.ConnectionStatus
	}
	setBool(&p.IsFakeParticipant, patch.IsFakeParticipant)
	setBool(&p.IsReplacing, patch.IsReplacing)
	setBool(&p.IsJigasi, patch.IsJigasi)
	return p
}

func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// AsPatch turns the mutable, non-empty fields of p into a patch, so that
// fresh information about an already known participant can be merged in.
func (p Participant) AsPatch() Patch {
	var patch Patch
	nonEmpty := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}
	patch.DisplayName = nonEmpty(p.DisplayName)
	patch.AvatarURL = nonEmpty(p.AvatarURL)
	patch.LoadableAvatarURL = nonEmpty(p.LoadableAvatarURL)
	patch.Email = nonEmpty(p.Email)
	patch.BotType = nonEmpty(p.BotType)
	patch.Presence = nonEmpty(p.Presence)
	if p.Role != "" && p.Role != RoleNone {
		role := p.Role
		patch.Role = &role
	}
	if p.ConnectionStatus != "" {
		status := p.ConnectionStatus
		patch.ConnectionStatus = &status
	}
	if p.IsFakeParticipant {
		patch.IsFakeParticipant = &p.IsFakeParticipant
	}
	return patch
}
