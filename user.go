package moviefavs

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MovieRef is a denormalized reference to a catalog entry stored inside a
// user's favorites set. Name is copied from the catalog at the time the
// movie is favorited and is not kept in sync with later catalog edits.
type MovieRef struct {
	ID   int    `bson:"id" json:"id"`
	Name string `bson:"nombre" json:"nombre"`
}

// UserRecord is the per-user document held in the collection store.
// Username is the primary key and immutable after creation. SecretMirror
// holds a bcrypt hash of the user's password and never leaves the server.
type UserRecord struct {
	Username     string     `bson:"username" json:"username"`
	SecretMirror string     `bson:"password" json:"-"`
	Movies       []MovieRef `bson:"movies" json:"movies"`
}

var (
	ErrInvalidUsername = errors.New("invalid username")

	// identity provider errors
	ErrDuplicateIdentifier = errors.New("identifier already registered")
	ErrInvalidCredential   = errors.New("credential rejected by provider policy")
	ErrNotFound            = errors.New("identifier not known to provider")
	ErrUnauthorized        = errors.New("invalid username or password")
	ErrProviderUnavailable = errors.New("identity provider unavailable")

	// collection store errors
	ErrConflict         = errors.New("username already present")
	ErrUserNotFound     = errors.New("user not found")
	ErrStoreUnavailable = errors.New("collection store unavailable")
)

// NewUserRecord validates the username and returns a record with an empty
// movie set. The secret mirror is filled in by the service on insert.
func NewUserRecord(username string) (*UserRecord, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrInvalidUsername
	}
	return &UserRecord{Username: username, Movies: []MovieRef{}}, nil
}

func (u *UserRecord) HasMovie(id int) bool {
	for _, m := range u.Movies {
		if m.ID == id {
			return true
		}
	}
	return false
}

// addMovie keeps set semantics: at most one MovieRef per id.
func (u *UserRecord) addMovie(m MovieRef) {
	if u.HasMovie(m.ID) {
		return
	}
	u.Movies = append(u.Movies, m)
}

// removeMovie is a no-op when the id is absent.
func (u *UserRecord) removeMovie(id int) {
	for i, m := range u.Movies {
		if m.ID == id {
			u.Movies = append(u.Movies[:i], u.Movies[i+1:]...)
			break
		}
	}
}

func hashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.New("error hashing secret")
	}
	return string(hash), nil
}

func mirrorMatchesSecret(mirror, secret string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(mirror), []byte(secret))
	return err == nil
}
