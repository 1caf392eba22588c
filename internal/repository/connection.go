package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions are the connection settings for the cart database. Zero
// values fall back to DefaultMongoOptions.
type MongoOptions struct {
	URI      string
	Database string

	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
}

func DefaultMongoOptions(uri, database string) MongoOptions {
	return MongoOptions{
		URI:                    uri,
		Database:               database,
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
		MaxPoolSize:            50,
		MinPoolSize:            5,
	}
}

func (o MongoOptions) withDefaults() MongoOptions {
	def := DefaultMongoOptions(o.URI, o.Database)
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = def.ConnectTimeout
	}
	if o.ServerSelectionTimeout <= 0 {
		o.ServerSelectionTimeout = def.ServerSelectionTimeout
	}
	if o.MaxPoolSize == 0 {
		o.MaxPoolSize = def.MaxPoolSize
	}
	if o.MinPoolSize > o.MaxPoolSize {
		o.MinPoolSize = o.MaxPoolSize
	}
	return o
}

func (o MongoOptions) clientOptions() *options.ClientOptions {
	return options.Client().
		ApplyURI(o.URI).
		SetAppName("cart-service").
		SetConnectTimeout(o.ConnectTimeout).
		SetServerSelectionTimeout(o.ServerSelectionTimeout).
		SetMaxPoolSize(o.MaxPoolSize).
		SetMinPoolSize(o.MinPoolSize)
}

// ConnectMongoDB connects and pings before handing back the cart database.
func ConnectMongoDB(ctx context.Context, opts MongoOptions) (*mongo.Database, error) {
	opts = opts.withDefaults()
	if opts.Database == "" {
		return nil, fmt.Errorf("mongo database name is required")
	}

	client, err := mongo.Connect(ctx, opts.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.ServerSelectionTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return client.Database(opts.Database), nil
}
