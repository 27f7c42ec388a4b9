package moviefavs

import (
	"context"
	"sync"
)

type collectionRepository struct {
	mu    sync.RWMutex
	users map[string]*UserRecord
}

// NewCollectionRepository returns an in-memory CollectionRepository,
// used in tests in place of the mongo-backed one.
func NewCollectionRepository() CollectionRepository {
	return &collectionRepository{users: map[string]*UserRecord{}}
}

func (repo *collectionRepository) Insert(ctx context.Context, username, secretMirror string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.users[username]; ok {
		return ErrConflict
	}
	repo.users[username] = &UserRecord{Username: username, SecretMirror: secretMirror, Movies: []MovieRef{}}
	return nil
}

func (repo *collectionRepository) FindByUsername(ctx context.Context, username string) (*UserRecord, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	u, ok := repo.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	cp.Movies = append([]MovieRef{}, u.Movies...)
	return &cp, nil
}

func (repo *collectionRepository) Delete(ctx context.Context, username string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	delete(repo.users, username)
	return nil
}

func (repo *collectionRepository) AddMovie(ctx context.Context, username string, movie MovieRef) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	u, ok := repo.users[username]
	if !ok {
		return ErrUserNotFound
	}
	u.addMovie(movie)
	return nil
}

func (repo *collectionRepository) RemoveMovie(ctx context.Context, username string, movieID int) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if u, ok := repo.users[username]; ok {
		u.removeMovie(movieID)
	}
	return nil
}

func (repo *collectionRepository) SecretMirror(ctx context.Context, username string) (string, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	u, ok := repo.users[username]
	if !ok {
		return "", ErrUserNotFound
	}
	return u.SecretMirror, nil
}

func (repo *collectionRepository) Close(ctx context.Context) error {
	return nil
}
