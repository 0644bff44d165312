package session

import (
	"context"

	"baches/internal/models"
)

// Authenticator exchanges credentials for a session. Inputs reach it already
// validated.
type Authenticator interface {
	Login(ctx context.Context, identifier, secret string) (models.Session, error)
	Register(ctx context.Context, input RegisterInput) (models.Session, error)
}

type RegisterInput struct {
	Identifier string
	Secret     string
	Confirm    string
	Name       string
	Lastname   string
	Role       string
}
