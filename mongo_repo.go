package moviefavs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCollectionRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	closeOnce  sync.Once
}

// NewMongoCollectionRepository wraps a connected client. The repository owns
// the client from here on: Close disconnects it exactly once. A unique index
// on username is created up front so concurrent inserts of the same username
// collide server-side instead of racing a lookup.
func NewMongoCollectionRepository(ctx context.Context, client *mongo.Client, database, collection string) (CollectionRepository, error) {
	coll := client.Database(database).Collection(collection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return &mongoCollectionRepository{client: client, collection: coll}, nil
}

func (m *mongoCollectionRepository) Insert(ctx context.Context, username, secretMirror string) error {
	rec := UserRecord{Username: username, SecretMirror: secretMirror, Movies: []MovieRef{}}
	if _, err := m.collection.InsertOne(ctx, &rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return storeErr(err)
	}
	return nil
}

func (m *mongoCollectionRepository) FindByUsername(ctx context.Context, username string) (*UserRecord, error) {
	var rec UserRecord
	sr := m.collection.FindOne(ctx, bson.M{"username": username})
	if err := sr.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, storeErr(err)
	}
	if err := sr.Decode(&rec); err != nil {
		return nil, storeErr(err)
	}
	if rec.Movies == nil {
		rec.Movies = []MovieRef{}
	}
	return &rec, nil
}

func (m *mongoCollectionRepository) Delete(ctx context.Context, username string) error {
	// DeleteOne on a missing record matches nothing, which keeps the
	// operation idempotent.
	if _, err := m.collection.DeleteOne(ctx, bson.M{"username": username}); err != nil {
		return storeErr(err)
	}
	return nil
}

// AddMovie keys the set by movie id, not by whole document: the filter only
// matches when no element with that id is present, so a re-add with a
// drifted name is a no-op. The guarded push is a single atomic update, so
// concurrent adds of the same id still leave at most one element.
func (m *mongoCollectionRepository) AddMovie(ctx context.Context, username string, movie MovieRef) error {
	res, err := m.collection.UpdateOne(ctx,
		bson.M{"username": username, "movies.id": bson.M{"$ne": movie.ID}},
		bson.M{"$push": bson.M{"movies": movie}})
	if err != nil {
		return storeErr(err)
	}
	if res.MatchedCount == 0 {
		// either the user is missing or the id is already in the set
		if _, err := m.FindByUsername(ctx, username); err != nil {
			return err
		}
	}
	return nil
}

func (m *mongoCollectionRepository) RemoveMovie(ctx context.Context, username string, movieID int) error {
	// $pull of an absent id modifies nothing; a missing user matches
	// nothing. Both are no-ops.
	_, err := m.collection.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$pull": bson.M{"movies": bson.M{"id": movieID}}})
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (m *mongoCollectionRepository) SecretMirror(ctx context.Context, username string) (string, error) {
	rec, err := m.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return rec.SecretMirror, nil
}

func (m *mongoCollectionRepository) Close(ctx context.Context) error {
	var err error
	m.closeOnce.Do(func() {
		err = m.client.Disconnect(ctx)
	})
	return err
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
