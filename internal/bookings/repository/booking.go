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

	bookingserrors "mentorhub/internal/bookings/errors"
	"mentorhub/pkg/config"
	mongotx "mentorhub/pkg/db/mongo"
	"mentorhub/pkg/model"
)

const CollectionName = "bookings"

// Reminder flags stored on a booking.
const (
	Reminder24h = "reminder_24h_sent"
	Reminder1h  = "reminder_1h_sent"
)

var activeStatuses = bson.A{model.BookingStatusPending, model.BookingStatusConfirmed}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByMentorAndDate(ctx context.Context, mentorID, date string) ([]*model.Booking, error)
	FindActiveByMentorAndDates(ctx context.Context, mentorID string, dates []string) ([]*model.Booking, error)
	// UpdateStatus moves a booking from one status to another only if it is still in from.
	UpdateStatus(ctx context.Context, id, from, to string, meetingLink, meetingProvider string) (*model.Booking, error)
	FindDueForReminder(ctx context.Context, flag string, now, horizon time.Time, limit int) ([]*model.Booking, error)
	MarkReminderSent(ctx context.Context, id, flag string) (bool, error)
	FindEnded(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindByMentorAndDate(ctx context.Context, mentorID, date string) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "scheduled_time", Value: 1}, {Key: "created_at", Value: 1}})
	return r.find(ctx, bson.M{"expert_id": mentorID, "scheduled_date": date}, opts)
}

func (r *mongoBookingRepository) FindActiveByMentorAndDates(ctx context.Context, mentorID string, dates []string) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"expert_id":      mentorID,
		"scheduled_date": bson.M{"$in": dates},
		"status":         bson.M{"$in": activeStatuses},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_at", Value: 1}}))
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id, from, to string, meetingLink, meetingProvider string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"status":     to,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if meetingLink != "" {
		set["meeting_link"] = meetingLink
	}
	if meetingProvider != "" {
		set["meeting_provider"] = meetingProvider
	}
	update := bson.M{"$set": set}
	if to == model.BookingStatusCancelled || to == model.BookingStatusCompleted {
		update["$unset"] = bson.M{"slot_key": ""}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID, "status": from}, update, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrStatusChanged
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return &booking, nil
}

// FindDueForReminder returns scheduled, active bookings starting in (now, horizon] whose
// flag is still unset.
func (r *mongoBookingRepository) FindDueForReminder(ctx context.Context, flag string, now, horizon time.Time, limit int) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"session_type": model.SessionOneOnOne,
		"status":       bson.M{"$in": activeStatuses},
		flag:           false,
		"start_at":     bson.M{"$gt": now, "$lte": horizon},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_at", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

// MarkReminderSent sets flag only if it is unset and reports whether this call set it.
func (r *mongoBookingRepository) MarkReminderSent(ctx context.Context, id, flag string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, flag: false},
		bson.M{"$set": bson.M{flag: true, "updated_at": time.Now().UTC().Truncate(time.Millisecond)}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *mongoBookingRepository) FindEnded(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"session_type": model.SessionOneOnOne,
		"status":       model.BookingStatusConfirmed,
		"end_at":       bson.M{"$lte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "end_at", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
