package common

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	EnvIntegration     = "MENTORHUB_INTEGRATION"
	EnvAvailabilityURL = "TEST_AVAILABILITY_URL"
	EnvBookingsURL     = "TEST_BOOKINGS_URL"
	EnvMongoURI        = "TEST_MONGO_URI"
	EnvDatabaseName    = "TEST_DB_NAME"
)

// IntegrationTestSuite talks to running availability and bookings services and cleans up
// the documents it created directly in Mongo.
type IntegrationTestSuite struct {
	Availability *Client
	Bookings     *Client
	Mongo        *mongo.Client
	Database     *mongo.Database
}

// NewIntegrationTestSuite skips the test unless MENTORHUB_INTEGRATION is set.
func NewIntegrationTestSuite(t *testing.T) *IntegrationTestSuite {
	t.Helper()
	if os.Getenv(EnvIntegration) == "" {
		t.Skipf("set %s=1 to run against live services", EnvIntegration)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(getEnv(EnvMongoURI, "mongodb://localhost:27017")))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	s := &IntegrationTestSuite{
		Availability: NewClient(getEnv(EnvAvailabilityURL, "http://localhost:8081")),
		Bookings:     NewClient(getEnv(EnvBookingsURL, "http://localhost:8080")),
		Mongo:        client,
		Database:     client.Database(getEnv(EnvDatabaseName, "mentorhub")),
	}
	s.Availability.WaitForHealthy(t, 30*time.Second)
	s.Bookings.WaitForHealthy(t, 30*time.Second)
	return s
}

// Teardown removes everything owned by mentorID and disconnects.
func (s *IntegrationTestSuite) Teardown(t *testing.T, mentorID string, mentorObjectID any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cleanups := []struct {
		collection string
		filter     bson.M
	}{
		{"availability_rules", bson.M{"mentor_id": mentorID}},
		{"blocked_dates", bson.M{"mentor_id": mentorID}},
		{"bookings", bson.M{"expert_id": mentorID}},
		{"mentors", bson.M{"_id": mentorObjectID}},
	}
	for _, c := range cleanups {
		if _, err := s.Database.Collection(c.collection).DeleteMany(ctx, c.filter); err != nil {
			t.Logf("warning: failed to clean %s: %v", c.collection, err)
		}
	}

	if err := s.Mongo.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
