package session

import (
	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const bearerTokenType = "Bearer"

// NewToken wraps a raw access token returned by the backend.
// When the token is a JWT its exp claim is copied into Expiry; the signature is
// not verified, the backend does that.
func NewToken(accessToken string) *oauth2.Token {
	if accessToken == "" {
		return nil
	}
	tok := &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   bearerTokenType,
	}

	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return tok
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tok.Expiry = exp.Time
	}
	return tok
}
