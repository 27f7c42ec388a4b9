package moviefavs

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type service struct {
	identity IdentityProvider
	users    CollectionRepository
	log      *zap.Logger
}

func NewService(identity IdentityProvider, users CollectionRepository, log *zap.Logger) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &service{identity: identity, users: users, log: log}
}

// Register creates the identity at the provider first, then mirrors the
// account into the collection store. A provider failure aborts before the
// store is touched. A store failure after a successful provider call leaves
// an orphaned provider identity; there is no compensating delete, so the
// window is logged for manual reconciliation.
func (svc *service) Register(ctx context.Context, req credentialsRequest) error {
	rec, err := NewUserRecord(req.Username)
	if err != nil {
		return err
	}

	uid, err := svc.identity.CreateAccount(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}

	mirror, err := hashSecret(req.Password)
	if err != nil {
		return err
	}

	if err := svc.users.Insert(ctx, rec.Username, mirror); err != nil {
		svc.log.Warn("provider account has no collection record",
			zap.String("username", req.Username),
			zap.String("provider_uid", uid),
			zap.Error(err))
		return fmt.Errorf("error saving user: %w", err)
	}

	svc.log.Info("user registered", zap.String("username", req.Username))
	return nil
}

// Login checks that the identifier resolves at the provider, then gates on
// the store's secret mirror. The mirror comparison is load-bearing: the
// provider lookup alone does not validate the secret.
func (svc *service) Login(ctx context.Context, req credentialsRequest) error {
	if _, err := svc.identity.VerifyIdentity(ctx, req.Username, req.Password); err != nil {
		svc.log.Info("login rejected by provider", zap.String("username", req.Username), zap.Error(err))
		return ErrUnauthorized
	}

	mirror, err := svc.users.SecretMirror(ctx, req.Username)
	if err != nil {
		// only a missing record is an authentication failure; a store
		// outage is not the caller's fault
		if errors.Is(err, ErrUserNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	if !mirrorMatchesSecret(mirror, req.Password) {
		return ErrUnauthorized
	}

	return nil
}

func (svc *service) FindUser(ctx context.Context, username string) (*UserRecord, error) {
	return svc.users.FindByUsername(ctx, username)
}

// DeleteUser removes the account from both stores best-effort: a provider
// miss or failure does not stop the collection record from being deleted.
func (svc *service) DeleteUser(ctx context.Context, username string) error {
	if err := svc.identity.DeleteAccount(ctx, username); err != nil && !errors.Is(err, ErrNotFound) {
		svc.log.Warn("provider delete failed", zap.String("username", username), zap.Error(err))
	}
	return svc.users.Delete(ctx, username)
}

func (svc *service) AddMovieToUser(ctx context.Context, username string, movie MovieRef) error {
	return svc.users.AddMovie(ctx, username, movie)
}

func (svc *service) RemoveMovieFromUser(ctx context.Context, username string, movieID int) error {
	return svc.users.RemoveMovie(ctx, username, movieID)
}
