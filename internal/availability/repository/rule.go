package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	availabilityerrors "mentorhub/internal/availability/errors"
	"mentorhub/pkg/config"
	mongotx "mentorhub/pkg/db/mongo"
	"mentorhub/pkg/model"
)

const RulesCollection = "availability_rules"

type RuleRepository interface {
	FindByMentor(ctx context.Context, mentorID string) ([]*model.AvailabilityRule, error)
	// FindForDate returns the recurring rules for weekday plus the one-off rules for date.
	FindForDate(ctx context.Context, mentorID, date string, weekday int) ([]*model.AvailabilityRule, error)
	InsertMany(ctx context.Context, rules []*model.AvailabilityRule) error
	Delete(ctx context.Context, mentorID, id string) error
}

type mongoRuleRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRuleRepository(cfg *config.Config) RuleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRuleRepository{
		cfg:        cfg,
		collection: db.Collection(RulesCollection),
	}
}

func (r *mongoRuleRepository) FindByMentor(ctx context.Context, mentorID string) ([]*model.AvailabilityRule, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "is_recurring", Value: -1},
		{Key: "day_of_week", Value: 1},
		{Key: "specific_date", Value: 1},
		{Key: "start_time", Value: 1},
	})
	return r.find(ctx, bson.M{"mentor_id": mentorID}, opts)
}

func (r *mongoRuleRepository) FindForDate(ctx context.Context, mentorID, date string, weekday int) ([]*model.AvailabilityRule, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"mentor_id": mentorID,
		"$or": bson.A{
			bson.M{"is_recurring": true, "day_of_week": weekday},
			bson.M{"is_recurring": false, "specific_date": date},
		},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
}

func (r *mongoRuleRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.AvailabilityRule, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find availability rules: %w", err)
	}
	defer cursor.Close(ctx)

	rules := []*model.AvailabilityRule{}
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode availability rules: %w", err)
	}
	return rules, nil
}

// InsertMany writes the batch in one ordered insert and assigns the generated ids.
func (r *mongoRuleRepository) InsertMany(ctx context.Context, rules []*model.AvailabilityRule) error {
	if len(rules) == 0 {
		return nil
	}
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, len(rules))
	for i, rule := range rules {
		rule.CreatedAt = now
		docs[i] = rule
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to insert availability rules: %w", err)
	}

	for i, id := range result.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok && i < len(rules) {
			rules[i].ID = oid.Hex()
		}
	}
	return nil
}

func (r *mongoRuleRepository) Delete(ctx context.Context, mentorID, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", availabilityerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID, "mentor_id": mentorID})
	if err != nil {
		return fmt.Errorf("failed to delete availability rule: %w", err)
	}
	if result.DeletedCount == 0 {
		return availabilityerrors.ErrRuleNotFound
	}
	return nil
}
