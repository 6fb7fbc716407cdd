package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"mentorhub/pkg/config"
	mongotx "mentorhub/pkg/db/mongo"
	"mentorhub/pkg/model"
)

const LocksCollection = "booking_locks"

// SlotLocker serialises concurrent submissions for the same slot key.
type SlotLocker interface {
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, owner string) error
}

// NewSlotLocker picks the lock backend named by SLOT_LOCK_BACKEND.
func NewSlotLocker(cfg *config.Config) SlotLocker {
	if cfg.SlotLockBackend == config.SlotLockMongo {
		return NewMongoSlotLocker(cfg)
	}
	return NewRedisSlotLocker(cfg.Client.Redis)
}

type mongoSlotLocker struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotLocker(cfg *config.Config) SlotLocker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLocker{
		cfg:        cfg,
		collection: db.Collection(LocksCollection),
	}
}

// Acquire inserts a lock document keyed by the slot. The TTL index reaps abandoned locks
// eventually; expired ones are also cleared here so a crash does not hold a slot for a minute.
func (l *mongoSlotLocker) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	if _, err := l.collection.DeleteOne(ctx, bson.M{"_id": key, "expires_at": bson.M{"$lt": now}}); err != nil {
		return false, fmt.Errorf("failed to clear expired slot lock: %w", err)
	}

	_, err := l.collection.InsertOne(ctx, &model.BookingLock{
		ID:        key,
		Owner:     owner,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if mongotx.IsDuplicateKey(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to acquire slot lock: %w", err)
	}
	return true, nil
}

func (l *mongoSlotLocker) Release(ctx context.Context, key, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()

	if _, err := l.collection.DeleteOne(ctx, bson.M{"_id": key, "owner": owner}); err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	return nil
}
