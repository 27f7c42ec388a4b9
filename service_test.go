package moviefavs

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ServiceTestSuite struct {
	suite.Suite
	identity *identityProviderStub
	users    CollectionRepository
	svc      Service
	ctx      context.Context
}

func (s *ServiceTestSuite) SetupTest() {
	s.identity = newIdentityProviderStub()
	s.users = NewCollectionRepository()
	s.svc = NewService(s.identity, s.users, nil)
	s.ctx = context.Background()
}

func (s *ServiceTestSuite) register(username, password string) error {
	return s.svc.Register(s.ctx, credentialsRequest{Username: username, Password: password})
}

func (s *ServiceTestSuite) TestRegister_StoresHashedMirror() {
	err := s.register("bob", "password1")
	assert.NoError(s.T(), err)

	mirror, err := s.users.SecretMirror(s.ctx, "bob")
	assert.NoError(s.T(), err)
	assert.NotEqual(s.T(), "password1", mirror)
	assert.True(s.T(), mirrorMatchesSecret(mirror, "password1"))
}

func (s *ServiceTestSuite) TestRegister_DuplicateUsername() {
	assert.NoError(s.T(), s.register("bob", "password1"))
	assert.NoError(s.T(), s.svc.AddMovieToUser(s.ctx, "bob", MovieRef{ID: 42, Name: "Dune"}))

	err := s.register("bob", "other-password")
	assert.Equal(s.T(), ErrDuplicateIdentifier, err)

	// first registration's data untouched
	user, err := s.users.FindByUsername(s.ctx, "bob")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), []MovieRef{{ID: 42, Name: "Dune"}}, user.Movies)
	assert.NoError(s.T(), s.svc.Login(s.ctx, credentialsRequest{Username: "bob", Password: "password1"}))
}

func (s *ServiceTestSuite) TestRegister_EmptyUsernameNeverReachesProvider() {
	err := s.register("  ", "password1")
	assert.Equal(s.T(), ErrInvalidUsername, err)
	assert.Equal(s.T(), 0, s.identity.createCalls)
}

func (s *ServiceTestSuite) TestRegister_ProviderFailureLeavesStoreUntouched() {
	s.identity.createErr = ErrProviderUnavailable

	err := s.register("bob", "password1")
	assert.Equal(s.T(), ErrProviderUnavailable, err)

	_, err = s.users.FindByUsername(s.ctx, "bob")
	assert.Equal(s.T(), ErrUserNotFound, err)
}

func (s *ServiceTestSuite) TestRegister_StoreFailureLeavesOrphanedIdentity() {
	svc := NewService(s.identity, &insertFailingRepository{s.users}, nil)

	err := svc.Register(s.ctx, credentialsRequest{Username: "bob", Password: "password1"})
	assert.Error(s.T(), err)

	// the provider-side account now exists with no collection record; the
	// register flow surfaces the failure instead of rolling back
	_, err = s.identity.VerifyIdentity(s.ctx, "bob", "")
	assert.NoError(s.T(), err)
	_, err = s.users.FindByUsername(s.ctx, "bob")
	assert.Equal(s.T(), ErrUserNotFound, err)
}

func (s *ServiceTestSuite) TestLogin_RoundTrip() {
	assert.NoError(s.T(), s.register("a@x.com", "pw1"))

	assert.NoError(s.T(), s.svc.Login(s.ctx, credentialsRequest{Username: "a@x.com", Password: "pw1"}))
	assert.Equal(s.T(), ErrUnauthorized, s.svc.Login(s.ctx, credentialsRequest{Username: "a@x.com", Password: "wrong"}))
	assert.Equal(s.T(), ErrUnauthorized, s.svc.Login(s.ctx, credentialsRequest{Username: "ghost", Password: "pw1"}))
}

func (s *ServiceTestSuite) TestLogin_MissingMirrorIsUnauthorized() {
	// provider knows the identifier but the store has no record: the mirror
	// gate must reject
	_, err := s.identity.CreateAccount(s.ctx, "bob", "password1")
	assert.NoError(s.T(), err)

	err = s.svc.Login(s.ctx, credentialsRequest{Username: "bob", Password: "password1"})
	assert.Equal(s.T(), ErrUnauthorized, err)
}

func (s *ServiceTestSuite) TestDeleteUser_Idempotent() {
	assert.NoError(s.T(), s.register("bob", "password1"))

	assert.NoError(s.T(), s.svc.DeleteUser(s.ctx, "bob"))
	_, err := s.users.FindByUsername(s.ctx, "bob")
	assert.Equal(s.T(), ErrUserNotFound, err)

	// second delete still succeeds
	assert.NoError(s.T(), s.svc.DeleteUser(s.ctx, "bob"))
}

func (s *ServiceTestSuite) TestAddMovie_Idempotent() {
	assert.NoError(s.T(), s.register("bob", "password1"))

	movie := MovieRef{ID: 42, Name: "Dune"}
	assert.NoError(s.T(), s.svc.AddMovieToUser(s.ctx, "bob", movie))
	assert.NoError(s.T(), s.svc.AddMovieToUser(s.ctx, "bob", movie))

	user, err := s.svc.FindUser(s.ctx, "bob")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), []MovieRef{movie}, user.Movies)
}

func (s *ServiceTestSuite) TestAddMovie_SameIDWithDriftedNameIsNoOp() {
	assert.NoError(s.T(), s.register("bob", "password1"))

	assert.NoError(s.T(), s.svc.AddMovieToUser(s.ctx, "bob", MovieRef{ID: 42, Name: "Dune"}))
	// the denormalized name can drift from the catalog; the set is keyed by
	// id, so the re-add changes nothing
	assert.NoError(s.T(), s.svc.AddMovieToUser(s.ctx, "bob", MovieRef{ID: 42, Name: "Dune: Part One"}))

	user, err := s.svc.FindUser(s.ctx, "bob")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), []MovieRef{{ID: 42, Name: "Dune"}}, user.Movies)
}

func (s *ServiceTestSuite) TestLogin_StoreOutageIsNotUnauthorized() {
	assert.NoError(s.T(), s.register("bob", "password1"))
	svc := NewService(s.identity, &mirrorFailingRepository{s.users}, nil)

	err := svc.Login(s.ctx, credentialsRequest{Username: "bob", Password: "password1"})

	assert.True(s.T(), errors.Is(err, ErrStoreUnavailable))
	assert.NotEqual(s.T(), ErrUnauthorized, err)
}

func (s *ServiceTestSuite) TestAddMovie_UnknownUser() {
	err := s.svc.AddMovieToUser(s.ctx, "ghost", MovieRef{ID: 1, Name: "x"})
	assert.Equal(s.T(), ErrUserNotFound, err)
}

func (s *ServiceTestSuite) TestRemoveMovie_AbsentIsNoOp() {
	assert.NoError(s.T(), s.register("bob", "password1"))
	assert.NoError(s.T(), s.svc.AddMovieToUser(s.ctx, "bob", MovieRef{ID: 42, Name: "Dune"}))

	assert.NoError(s.T(), s.svc.RemoveMovieFromUser(s.ctx, "bob", 7))

	user, err := s.svc.FindUser(s.ctx, "bob")
	assert.NoError(s.T(), err)
	assert.Len(s.T(), user.Movies, 1)

	assert.NoError(s.T(), s.svc.RemoveMovieFromUser(s.ctx, "bob", 42))
	user, _ = s.svc.FindUser(s.ctx, "bob")
	assert.Empty(s.T(), user.Movies)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

// identityProviderStub stands in for the Firebase client: identifiers map to
// generated provider ids, secrets are accepted but never checked on verify,
// matching the real provider contract.
type identityProviderStub struct {
	accounts    map[string]string
	createCalls int

	createErr, verifyErr, deleteErr error
}

func newIdentityProviderStub() *identityProviderStub {
	return &identityProviderStub{accounts: map[string]string{}}
}

func (p *identityProviderStub) CreateAccount(_ context.Context, identifier, secret string) (string, error) {
	p.createCalls++
	if p.createErr != nil {
		return "", p.createErr
	}
	if _, ok := p.accounts[identifier]; ok {
		return "", ErrDuplicateIdentifier
	}
	if len(secret) < 3 {
		return "", ErrInvalidCredential
	}
	uid := xid.New().String()
	p.accounts[identifier] = uid
	return uid, nil
}

func (p *identityProviderStub) VerifyIdentity(_ context.Context, identifier, _ string) (string, error) {
	if p.verifyErr != nil {
		return "", p.verifyErr
	}
	uid, ok := p.accounts[identifier]
	if !ok {
		return "", ErrNotFound
	}
	return uid, nil
}

func (p *identityProviderStub) DeleteAccount(_ context.Context, identifier string) error {
	if p.deleteErr != nil {
		return p.deleteErr
	}
	if _, ok := p.accounts[identifier]; !ok {
		return ErrNotFound
	}
	delete(p.accounts, identifier)
	return nil
}

type insertFailingRepository struct {
	CollectionRepository
}

func (r *insertFailingRepository) Insert(context.Context, string, string) error {
	return errors.New("write failed")
}

type mirrorFailingRepository struct {
	CollectionRepository
}

func (r *mirrorFailingRepository) SecretMirror(context.Context, string) (string, error) {
	return "", storeErr(errors.New("connection reset"))
}
