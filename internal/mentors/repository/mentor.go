package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mentorserrors "mentorhub/internal/mentors/errors"
	"mentorhub/pkg/config"
	mongotx "mentorhub/pkg/db/mongo"
	"mentorhub/pkg/model"
)

const CollectionName = "mentors"

type MentorRepository interface {
	FindByID(ctx context.Context, id string) (*model.MentorProfile, error)
	Upsert(ctx context.Context, profile *model.MentorProfile) error
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.MentorProfile, error)
	Count(ctx context.Context) (int64, error)
}

type mongoMentorRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoMentorRepository(cfg *config.Config) MentorRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoMentorRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoMentorRepository) FindByID(ctx context.Context, id string) (*model.MentorProfile, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", mentorserrors.ErrInvalidID, id)
	}

	var profile model.MentorProfile
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mentorserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find mentor profile: %w", err)
	}
	return &profile, nil
}

// Upsert replaces the whole profile keyed by its ID.
func (r *mongoMentorRepository) Upsert(ctx context.Context, profile *model.MentorProfile) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(profile.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", mentorserrors.ErrInvalidID, profile.ID)
	}

	profile.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{"$set": bson.M{
		"name":       profile.Name,
		"email":      profile.Email,
		"timezone":   profile.Timezone,
		"services":   profile.Services,
		"updated_at": profile.UpdatedAt,
	}}

	if _, err := r.collection.UpdateByID(ctx, objectID, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert mentor profile: %w", err)
	}
	return nil
}

func (r *mongoMentorRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.MentorProfile, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentor profiles: %w", err)
	}
	defer cursor.Close(ctx)

	profiles := make([]*model.MentorProfile, 0, limit)
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode mentor profiles: %w", err)
	}
	return profiles, nil
}

func (r *mongoMentorRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count mentor profiles: %w", err)
	}
	return count, nil
}
