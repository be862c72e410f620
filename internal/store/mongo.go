package store

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mode selects which storage backend the persistence adapter talks to.
// It is decided exactly once at startup and never revisited mid-life.
type Mode int

const (
	// ModeFile persists collections as flat JSON files on disk.
	ModeFile Mode = iota
	// ModeDocument persists collections in MongoDB.
	ModeDocument
)

func (m Mode) String() string {
	if m == ModeDocument {
		return "mongodb"
	}
	return "file_storage"
}

// Mongo wraps a connected MongoDB database handle.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Connect attempts a single MongoDB connection with a short timeout.
// On failure it returns nil and ModeFile: the process degrades to file
// storage for its whole lifetime. There is no retry loop.
func Connect(ctx context.Context, uri, dbName string) (*Mongo, Mode) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err == nil {
		err = client.Ping(ctx, readpref.Primary())
	}
	if err != nil {
		log.Printf("mongodb not available (%v), using file storage", err)
		return nil, ModeFile
	}

	log.Printf("mongodb connected: %s/%s", uri, dbName)
	return &Mongo{Client: client, DB: client.Database(dbName)}, ModeDocument
}

// Ping verifies the connection is still live.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return nil
	}
	return m.Client.Disconnect(ctx)
}
