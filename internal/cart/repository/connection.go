package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectOptions carries the cart store connection settings. Pool sizes
// left at zero fall back to values sized for a single storefront process.
type ConnectOptions struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	MinPoolSize uint64
}

func (o ConnectOptions) withDefaults() ConnectOptions {
	if o.MaxPoolSize == 0 {
		o.MaxPoolSize = 50
	}
	if o.MinPoolSize == 0 {
		o.MinPoolSize = 5
	}
	return o
}

func ConnectMongoDB(ctx context.Context, opts ConnectOptions) (*mongo.Database, error) {
	opts = opts.withDefaults()

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(opts.MaxPoolSize).
		SetMinPoolSize(opts.MinPoolSize)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(opts.Database), nil
}
