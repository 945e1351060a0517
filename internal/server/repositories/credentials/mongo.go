package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding credential documents.
const CollectionName = "passwords"

type credentialDocument struct {
	MongoID   primitive.ObjectID `bson:"_id,omitempty"`
	ID        string             `bson:"id"`
	OwnerID   string             `bson:"ownerId"`
	Site      string             `bson:"site"`
	Username  string             `bson:"username"`
	Secret    string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *credentialDocument) model() *models.Credential {
	return &models.Credential{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Site:      d.Site,
		Username:  d.Username,
		Secret:    d.Secret,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoRepository stores credentials in a MongoDB collection. MongoDB has no
// foreign keys, so Create looks the owner up through owners first.
type MongoRepository struct {
	coll   *mongo.Collection
	owners Owners
}

func NewMongoRepository(coll *mongo.Collection, owners Owners) *MongoRepository {
	return &MongoRepository{coll: coll, owners: owners}
}

// Indexes is the index set EnsureIndexes creates.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}, {Key: "ownerId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("passwords_id_owner_key"),
		},
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("passwords_owner_idx"),
		},
	}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.coll.Indexes().CreateMany(ctx, Indexes()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func ownerFilter(ownerID, id string) bson.D {
	return bson.D{{Key: "id", Value: id}, {Key: "ownerId", Value: ownerID}}
}

func (r *MongoRepository) List(ctx context.Context, ownerID string) ([]*models.Credential, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.D{{Key: "ownerId", Value: ownerID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	result := make([]*models.Credential, 0)
	for cur.Next(ctx) {
		var doc credentialDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, doc.model())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *MongoRepository) Create(ctx context.Context, c *models.Credential) (*models.Credential, error) {
	if err := checkOwner(ctx, r.owners, c.OwnerID); err != nil {
		return nil, err
	}

	ts := time.Now().UTC().Truncate(time.Millisecond)
	doc := credentialDocument{
		MongoID:   primitive.NewObjectID(),
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Site:      c.Site,
		Username:  c.Username,
		Secret:    c.Secret,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.model(), nil
}

func (r *MongoRepository) Update(ctx context.Context, c *models.Credential) (*models.Credential, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "site", Value: c.Site},
		{Key: "username", Value: c.Username},
		{Key: "password", Value: c.Secret},
		{Key: "updatedAt", Value: time.Now().UTC().Truncate(time.Millisecond)},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc credentialDocument
	err := r.coll.FindOneAndUpdate(ctx, ownerFilter(c.OwnerID, c.ID), update, opts).Decode(&doc)
	return r.result(&doc, err)
}

func (r *MongoRepository) Delete(ctx context.Context, ownerID, id string) (*models.Credential, error) {
	var doc credentialDocument
	err := r.coll.FindOneAndDelete(ctx, ownerFilter(ownerID, id)).Decode(&doc)
	return r.result(&doc, err)
}

func (r *MongoRepository) result(doc *credentialDocument, err error) (*models.Credential, error) {
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.model(), nil
}
