package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	availabilityerrors "mentorhub/internal/availability/errors"
	"mentorhub/pkg/config"
	mongotx "mentorhub/pkg/db/mongo"
	"mentorhub/pkg/model"
)

const BlockedDatesCollection = "blocked_dates"

type BlockedDateRepository interface {
	FindByMentor(ctx context.Context, mentorID string) ([]*model.BlockedDate, error)
	IsBlocked(ctx context.Context, mentorID, date string) (bool, error)
	// InsertMany blocks every date, skipping ones already blocked, and returns how many were new.
	InsertMany(ctx context.Context, dates []*model.BlockedDate) (int64, error)
	Delete(ctx context.Context, mentorID, date string) error
}

type mongoBlockedDateRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBlockedDateRepository(cfg *config.Config) BlockedDateRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBlockedDateRepository{
		cfg:        cfg,
		collection: db.Collection(BlockedDatesCollection),
	}
}

func (r *mongoBlockedDateRepository) FindByMentor(ctx context.Context, mentorID string) ([]*model.BlockedDate, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"mentor_id": mentorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find blocked dates: %w", err)
	}
	defer cursor.Close(ctx)

	dates := []*model.BlockedDate{}
	if err := cursor.All(ctx, &dates); err != nil {
		return nil, fmt.Errorf("failed to decode blocked dates: %w", err)
	}
	return dates, nil
}

func (r *mongoBlockedDateRepository) IsBlocked(ctx context.Context, mentorID, date string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	err := r.collection.FindOne(ctx,
		bson.M{"mentor_id": mentorID, "date": date},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check blocked date: %w", err)
	}
	return true, nil
}

func (r *mongoBlockedDateRepository) InsertMany(ctx context.Context, dates []*model.BlockedDate) (int64, error) {
	if len(dates) == 0 {
		return 0, nil
	}
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	writes := make([]mongo.WriteModel, 0, len(dates))
	for _, d := range dates {
		d.CreatedAt = now
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"mentor_id": d.MentorID, "date": d.Date}).
			SetUpdate(bson.M{"$setOnInsert": bson.M{
				"mentor_id":  d.MentorID,
				"date":       d.Date,
				"reason":     d.Reason,
				"created_at": d.CreatedAt,
			}}).
			SetUpsert(true))
	}

	result, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("failed to insert blocked dates: %w", err)
	}
	return result.UpsertedCount, nil
}

func (r *mongoBlockedDateRepository) Delete(ctx context.Context, mentorID, date string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"mentor_id": mentorID, "date": date})
	if err != nil {
		return fmt.Errorf("failed to delete blocked date: %w", err)
	}
	if result.DeletedCount == 0 {
		return availabilityerrors.ErrBlockedDateNotFound
	}
	return nil
}
