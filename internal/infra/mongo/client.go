package mongo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/RishiKendai/plagcheck/internal/models"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultSelectionTimeout = 10 * time.Second

type Client struct {
	client   *mongo.Client
	Database *mongo.Database
}

// NewClient connects to MongoDB and verifies the connection with a ping.
func NewClient(ctx context.Context, uri, dbName string) (*Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(defaultSelectionTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// BuildURI injects username and password into the connection URL when both are set.
func BuildURI(base, username, password string) (string, error) {
	if username == "" || password == "" {
		return base, nil
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid MongoDB URL: %w", err)
	}
	u.User = url.UserPassword(username, password)
	return u.String(), nil
}

// Connector opens one client per operation. Acquire returns the database and
// a release func that disconnects the client.
type Connector struct {
	URI      string
	Username string
	Password string
	Database string
}

func (c Connector) Acquire(ctx context.Context) (*mongo.Database, func(context.Context), error) {
	if c.URI == "" || c.Database == "" {
		return nil, nil, fmt.Errorf("%w: MongoDB URL and database name are required", models.ErrConfiguration)
	}

	uri, err := BuildURI(c.URI, c.Username, c.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", models.ErrConfiguration, err)
	}

	client, err := NewClient(ctx, uri, c.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	}

	log.Debug().Str("database", c.Database).Msg("Connected to MongoDB")

	release := func(ctx context.Context) {
		if err := client.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to disconnect from MongoDB")
		}
	}
	return client.Database, release, nil
}
