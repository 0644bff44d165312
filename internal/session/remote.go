package session

import (
	"context"

	"baches/internal/models"
	"baches/internal/remote"
)

// RemoteAuthenticator trusts the hosted API's verdict.
type RemoteAuthenticator struct {
	client *remote.Client
}

func NewRemoteAuthenticator(client *remote.Client) *RemoteAuthenticator {
	return &RemoteAuthenticator{client: client}
}

func (a *RemoteAuthenticator) Login(ctx context.Context, identifier, secret string) (models.Session, error) {
	res, err := a.client.Login(ctx, identifier, secret)
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{Token: res.Token, User: res.User}, nil
}

func (a *RemoteAuthenticator) Register(ctx context.Context, input RegisterInput) (models.Session, error) {
	res, err := a.client.Register(ctx, remote.RegisterRequest{
		Email:    input.Identifier,
		Password: input.Secret,
		Name:     input.Name,
		Lastname: input.Lastname,
		Role:     input.Role,
	})
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{Token: res.Token, User: res.User}, nil
}
