package participant

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeLocalWithoutID(t *testing.T) {
	p := Participant{Local: true, ConferenceRef: "RM_abc"}.Normalize()
	require.Equal(t, LocalDefaultID, p.ID)
	require.Empty(t, p.ConferenceRef)
	require.Equal(t, RoleNone, p.Role)
	require.False(t, p.Pinned)
	require.False(t, p.DominantSpeaker)
}

func TestNormalizeKeepsRemoteFields(t *testing.T) {
	p := Participant{ID: "r1", ConferenceRef: "RM_abc", Role: RoleModerator}.Normalize()
	require.Equal(t, "r1", p.ID)
	require.Equal(t, "RM_abc", p.ConferenceRef)
	require.Equal(t, RoleModerator, p.Role)
}

func TestMergeIgnoresProtectedFields(t *testing.T) {
	id := "other"
	yes := true
	ref := "RM_other"
	name := "Alice"

	p := Participant{ID: "r1", ConferenceRef: "RM_abc", Role: RoleNone}
	merged := p.Merge(Patch{
		ID:              &id,
		Local:           &yes,
		ConferenceRef:   &ref,
		DominantSpeaker: &yes,
		Pinned:          &yes,
		DisplayName:     &name,
	})

	require.Equal(t, "r1", merged.ID)
	require.False(t, merged.Local)
	require.Equal(t, "RM_abc", merged.ConferenceRef)
	require.False(t, merged.DominantSpeaker)
	require.False(t, merged.Pinned)
	require.Equal(t, "Alice", merged.DisplayName)
}

func TestMergeClearsFieldWithEmptyValue(t *testing.T) {
	empty := ""
	p := Participant{ID: "r1", Email: "a@b.c"}
	require.Empty(t, p.Merge(Patch{Email: &empty}).Email)
}

func TestEmptyPatch(t *testing.T) {
	require.True(t, Patch{}.IsEmpty())
	status := ConnectionActive
	require.False(t, Patch{ConnectionStatus: &status}.IsEmpty())
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("moderator")
	require.NoError(t, err)
	require.Equal(t, RoleModerator, role)

	role, err = ParseRole("")
	require.NoError(t, err)
	require.Equal(t, RoleNone, role)

	_, err = ParseRole("admin")
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestAsPatchSkipsEmptyFields(t *testing.T) {
	p := Participant{ID: "r1", DisplayName: "Alice", Role: RoleNone, ConnectionStatus: ConnectionJoined, Pinned: true}
	patch := p.AsPatch()

	require.Nil(t, patch.ID)
	require.Nil(t, patch.Pinned)
	require.Nil(t, patch.Email)
	require.Nil(t, patch.Role)
	require.Equal(t, "Alice", *patch.DisplayName)
	require.Equal(t, ConnectionJoined, *patch.ConnectionStatus)

	merged := Participant{ID: "r1", Email: "a@b.c"}.Merge(patch)
	require.Equal(t, "Alice", merged.DisplayName)
	require.Equal(t, "a@b.c", merged.Email)
	require.False(t, merged.Pinned)
}
