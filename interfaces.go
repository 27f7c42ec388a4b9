package moviefavs

import "context"

// Service orchestrates the identity provider and the collection store into
// the account operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, req credentialsRequest) error
	Login(ctx context.Context, req credentialsRequest) error
	FindUser(ctx context.Context, username string) (*UserRecord, error)
	DeleteUser(ctx context.Context, username string) error
	AddMovieToUser(ctx context.Context, username string, movie MovieRef) error
	RemoveMovieFromUser(ctx context.Context, username string, movieID int) error
}

// IdentityProvider delegates account creation and identity verification to
// an external identity service. It owns no local state; every call is a
// single-attempt remote call.
type IdentityProvider interface {
	// CreateAccount registers a new identity and returns the provider-side
	// user id. Fails with ErrDuplicateIdentifier, ErrInvalidCredential or
	// ErrProviderUnavailable.
	CreateAccount(ctx context.Context, identifier, secret string) (string, error)

	// VerifyIdentity confirms the identifier resolves to an account at the
	// provider. It does not validate the secret; the collection store's
	// secret mirror is the actual gate. Fails with ErrNotFound or
	// ErrProviderUnavailable.
	VerifyIdentity(ctx context.Context, identifier, secret string) (string, error)

	// DeleteAccount removes the identity at the provider. Fails with
	// ErrNotFound or ErrProviderUnavailable.
	DeleteAccount(ctx context.Context, identifier string) error
}

// CollectionRepository is the per-user document store: one record per
// username holding the secret mirror and the favorited-movie set.
type CollectionRepository interface {
	// Insert creates a record with an empty movie set. Fails with
	// ErrConflict if the username is already present.
	Insert(ctx context.Context, username, secretMirror string) error

	// FindByUsername is a point lookup; a miss returns ErrUserNotFound.
	FindByUsername(ctx context.Context, username string) (*UserRecord, error)

	// Delete removes the record. Deleting a non-existent user is not an
	// error.
	Delete(ctx context.Context, username string) error

	// AddMovie is a set-union insert: adding an id that is already present
	// is a no-op. Fails with ErrUserNotFound if the username has no record.
	AddMovie(ctx context.Context, username string, movie MovieRef) error

	// RemoveMovie is a set removal; removing an absent id is a no-op.
	RemoveMovie(ctx context.Context, username string, movieID int) error

	// SecretMirror returns the stored mirror for local verification during
	// login. A miss returns ErrUserNotFound.
	SecretMirror(ctx context.Context, username string) (string, error)

	// Close releases the underlying connection. Safe to call multiple times.
	Close(ctx context.Context) error
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
