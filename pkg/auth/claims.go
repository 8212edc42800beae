package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ActorTokenPayload captures the data available when minting a JWT. The
// inventory engine treats the actor as an opaque identity issued by the
// external auth subsystem.
type ActorTokenPayload struct {
	UserID      uuid.UUID
	DisplayName string
	JTI         string
}

// ActorTokenClaims represents the typed JWT presented by operator sessions.
type ActorTokenClaims struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	jwt.RegisteredClaims
}
