package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnectMongo_BadURI(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, "mongodb://bad:uri")
	assert.Error(t, err)
	assert.Nil(t, client)
}

// Integration test (requires running MongoDB)
func TestMongoStore_Contract(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	database := client.Database("test_fleet_fuel")
	_ = database.Drop(ctx)
	defer func() {
		_ = database.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	}()

	store := NewMongoStore(client, "test_fleet_fuel")
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	runStoreContract(t, store)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "postgres"})
	assert.Error(t, err)
}

func TestOpen_Memory(t *testing.T) {
	store, err := Open(context.Background(), Options{Backend: BackendMemory})
	assert.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
}
