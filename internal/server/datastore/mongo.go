package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/passvault/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	mongoMaxPoolSize   = 10
	mongoSocketTimeout = 45 * time.Second
)

// MongoConnector opens MongoDB clients.
type MongoConnector struct {
	uri     string
	dbName  string
	timeout time.Duration
}

func NewMongoConnector(uri, dbName string, serverSelectionTimeout time.Duration) *MongoConnector {
	return &MongoConnector{uri: uri, dbName: dbName, timeout: serverSelectionTimeout}
}

func (c *MongoConnector) Backend() string { return "mongodb" }

func (c *MongoConnector) clientOptions() *options.ClientOptions {
	opts := options.Client().
		ApplyURI(c.uri).
		SetMaxPoolSize(mongoMaxPoolSize).
		SetSocketTimeout(mongoSocketTimeout).
		SetRetryWrites(true)
	if c.timeout > 0 {
		opts.SetServerSelectionTimeout(c.timeout)
	}
	return opts
}

func (c *MongoConnector) Connect(ctx context.Context) (Conn, error) {
	client, err := mongo.Connect(ctx, c.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("mongo connect error: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping error: %w", err)
	}

	db := client.Database(c.dbName)
	ur := users.NewMongoRepository(db.Collection(users.CollectionName))
	cr := credentials.NewMongoRepository(db.Collection(credentials.CollectionName), ur)

	if err := ur.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := cr.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &mongoConn{client: client, users: ur, credentials: cr}, nil
}

type mongoConn struct {
	client      *mongo.Client
	users       *users.MongoRepository
	credentials *credentials.MongoRepository
}

func (m *mongoConn) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *mongoConn) Close(ctx context.Context) error     { return m.client.Disconnect(ctx) }
func (m *mongoConn) Users() users.Repository             { return m.users }
func (m *mongoConn) Credentials() credentials.Repository { return m.credentials }
