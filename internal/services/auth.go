package services

import (
	"context"
	"errors"

	"layeredge/internal/datastore/redis_store"
	"layeredge/internal/models"
	"layeredge/internal/twitter"

	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"golang.org/x/oauth2"
)

// ServiceAuth runs the X login round trip: consent URL with PKCE,
// one-shot state in redis, code exchange, session token.
type ServiceAuth struct {
	container      *do.Injector
	redisDB        redis.UniversalClient
	oauth          *twitter.OAuthConfig
	authentication *Authentication
}

func NewServiceAuth(container *do.Injector) (*ServiceAuth, error) {
	db, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	oauth, err := do.Invoke[*twitter.OAuthConfig](container)
	if err != nil {
		return nil, err
	}

	authentication, err := do.Invoke[*Authentication](container)
	if err != nil {
		return nil, err
	}

	return &ServiceAuth{container, db, oauth, authentication}, nil
}

// BeginLogin stores a fresh state+verifier pair and returns the consent
// URL to redirect the browser to.
func (service *ServiceAuth) BeginLogin(ctx context.Context, redirectURI string) (string, error) {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	err := redis_store.SetOAuthState(ctx, service.redisDB, state, &redis_store.OAuthState{
		Verifier:    verifier,
		RedirectURI: redirectURI,
	})
	if err != nil {
		return "", errorx.Wrap(err, errorx.Service)
	}

	return service.oauth.AuthCodeURL(state, verifier), nil
}

// CompleteLogin redeems the callback code. The state is consumed on
// first use; a replayed callback fails authentication.
func (service *ServiceAuth) CompleteLogin(ctx context.Context, state string, code string) (string, *models.User, error) {
	stored, err := redis_store.PopOAuthState(ctx, service.redisDB, state)
	if err != nil {
		return "", nil, errorx.Wrap(errors.New("unknown or expired oauth state"), errorx.Authn)
	}

	token, err := service.oauth.Exchange(ctx, code, stored.Verifier)
	if err != nil {
		return "", nil, errorx.Wrap(err, errorx.Authn)
	}

	userAuth, err := service.oauth.FetchAuthenticatedUser(ctx, token)
	if err != nil {
		return "", nil, errorx.Wrap(err, errorx.Authn)
	}

	serviceUser, err := do.Invoke[*ServiceUser](service.container)
	if err != nil {
		return "", nil, errorx.Wrap(err, errorx.Service)
	}

	user, err := serviceUser.FindOrCreateUser(ctx, userAuth)
	if err != nil {
		return "", nil, err
	}

	session, err := service.authentication.CreateToken(userAuth)
	if err != nil {
		return "", nil, errorx.Wrap(err, errorx.Service)
	}

	return session, user, nil
}
