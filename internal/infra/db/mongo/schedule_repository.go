package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "nepalmentor/internal/domain/availability"
)

type ScheduleRepository struct {
	col *mongo.Collection
}

func NewScheduleRepository(db *mongo.Database) *ScheduleRepository {
	return &ScheduleRepository{col: db.Collection("availabilities")}
}

func (r *ScheduleRepository) ByMentor(ctx context.Context, mentorID string) (*domainavailability.Schedule, error) {
	oid, err := primitive.ObjectIDFromHex(mentorID)
	if err != nil {
		return nil, domainavailability.ErrNotFound
	}
	var doc scheduleDocument
	if err := r.col.FindOne(ctx, bson.M{"userId": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainavailability.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ScheduleRepository) BySlot(ctx context.Context, slotID string) (*domainavailability.Schedule, error) {
	oid, err := primitive.ObjectIDFromHex(slotID)
	if err != nil {
		return nil, domainavailability.ErrNotFound
	}
	var doc scheduleDocument
	if err := r.col.FindOne(ctx, bson.M{"slots._id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainavailability.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ScheduleRepository) Save(ctx context.Context, schedule *domainavailability.Schedule) error {
	doc, err := newScheduleDocument(schedule)
	if err != nil {
		return err
	}
	filter := bson.M{"userId": doc.MentorID}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	_, err = r.col.UpdateOne(ctx, filter, update, opts)
	return err
}

type scheduleDocument struct {
	MentorID  primitive.ObjectID `bson:"userId"`
	Slots     []slotDocument     `bson:"slots"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type slotDocument struct {
	ID    primitive.ObjectID `bson:"_id"`
	Time  string             `bson:"time"`
	Price int                `bson:"price"`
	Type  string             `bson:"type"`
}

func newScheduleDocument(s *domainavailability.Schedule) (scheduleDocument, error) {
	mentorOID, err := primitive.ObjectIDFromHex(s.MentorID)
	if err != nil {
		return scheduleDocument{}, err
	}
	doc := scheduleDocument{
		MentorID:  mentorOID,
		Slots:     make([]slotDocument, 0, len(s.Slots)),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	for _, slot := range s.Slots {
		slotOID, err := primitive.ObjectIDFromHex(slot.ID)
		if err != nil {
			return scheduleDocument{}, err
		}
		doc.Slots = append(doc.Slots, slotDocument{
			ID:    slotOID,
			Time:  slot.Time,
			Price: slot.Price,
			Type:  string(slot.Type),
		})
	}
	return doc, nil
}

func (d scheduleDocument) toAggregate() *domainavailability.Schedule {
	schedule := &domainavailability.Schedule{
		MentorID:  d.MentorID.Hex(),
		Slots:     make([]domainavailability.Slot, 0, len(d.Slots)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, slot := range d.Slots {
		schedule.Slots = append(schedule.Slots, domainavailability.Slot{
			ID:    slot.ID.Hex(),
			Time:  slot.Time,
			Price: slot.Price,
			Type:  domainavailability.SlotType(slot.Type),
		})
	}
	return schedule
}
