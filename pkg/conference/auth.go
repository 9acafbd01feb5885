package conference

import (
	"time"

	"github.com/livekit/protocol/auth"
)

type authProvider struct {
	APIKey    string
	APISecret string
}

func createAuthProvider(key string, secret string) *authProvider {
	return &authProvider{key, secret}
}

// buildObserverToken lets the bot watch a room without being seen and
// without publishing anything.
func (p *authProvider) buildObserverToken(room string, identity string) (string, error) {
	at := auth.NewAccessToken(p.APIKey, p.APISecret)
	f := false
	grant := &auth.VideoGrant{
		Room:           room,
		RoomJoin:       true,
		CanPublish:     &f,
		CanPublishData: &f,
		CanSubscribe:   &f,
		Hidden:         true,
	}
	return at.
		AddGrant(grant).
		SetIdentity(identity).
		SetValidFor(24 * time.Hour).
		ToJWT()
}

func (p *authProvider) keyProvider() auth.KeyProvider {
	return auth.NewFileBasedKeyProviderFromMap(map[string]string{p.APIKey: p.APISecret})
}
