package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainrequest "nepalmentor/internal/domain/request"
)

type RequestRepository struct {
	col *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) *RequestRepository {
	return &RequestRepository{col: db.Collection("requests")}
}

func (r *RequestRepository) ByID(ctx context.Context, id string) (*domainrequest.Request, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domainrequest.ErrNotFound
	}
	var doc requestDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrequest.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RequestRepository) ForMentor(ctx context.Context, mentorID string, status domainrequest.Status) ([]*domainrequest.Request, error) {
	oid, err := primitive.ObjectIDFromHex(mentorID)
	if err != nil {
		return nil, domainrequest.ErrNotFound
	}
	filter := bson.M{"mentor": oid}
	if status != "" {
		filter["status"] = string(status)
	}
	return r.find(ctx, filter)
}

func (r *RequestRepository) ForMentee(ctx context.Context, menteeID string, status domainrequest.Status) ([]*domainrequest.Request, error) {
	oid, err := primitive.ObjectIDFromHex(menteeID)
	if err != nil {
		return nil, domainrequest.ErrNotFound
	}
	filter := bson.M{"mentee": oid}
	if status != "" {
		filter["status"] = string(status)
	}
	return r.find(ctx, filter)
}

// AcceptedForSlot returns the requester set of every accepted request
// against the slot. Legacy documents carry a single mentee reference, group
// documents a mentees array; both shapes map onto the explicit variant.
func (r *RequestRepository) AcceptedForSlot(ctx context.Context, slotID string) ([]domainrequest.Requesters, error) {
	oid, err := primitive.ObjectIDFromHex(slotID)
	if err != nil {
		return nil, nil
	}
	cursor, err := r.col.Find(ctx, bson.M{"slotId": oid, "status": string(domainrequest.StatusAccepted)})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []domainrequest.Requesters
	for cursor.Next(ctx) {
		var doc requestDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.requesters())
	}
	return out, cursor.Err()
}

func (r *RequestRepository) Open(ctx context.Context, mentorID, menteeID, slotID string) (*domainrequest.Request, error) {
	mentorOID, err := primitive.ObjectIDFromHex(mentorID)
	if err != nil {
		return nil, domainrequest.ErrNotFound
	}
	menteeOID, err := primitive.ObjectIDFromHex(menteeID)
	if err != nil {
		return nil, domainrequest.ErrNotFound
	}
	slotOID, err := primitive.ObjectIDFromHex(slotID)
	if err != nil {
		return nil, domainrequest.ErrNotFound
	}
	filter := bson.M{
		"mentor": mentorOID,
		"mentee": menteeOID,
		"slotId": slotOID,
		"status": bson.M{"$in": bson.A{string(domainrequest.StatusPending), string(domainrequest.StatusAccepted)}},
	}
	var doc requestDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrequest.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RequestRepository) Save(ctx context.Context, req *domainrequest.Request) error {
	doc, err := newRequestDocument(req)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": doc.ID}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	_, err = r.col.UpdateOne(ctx, filter, update, opts)
	return err
}

func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domainrequest.ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainrequest.ErrNotFound
	}
	return nil
}

func (r *RequestRepository) find(ctx context.Context, filter bson.M) ([]*domainrequest.Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainrequest.Request
	for cursor.Next(ctx) {
		var doc requestDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type requestDocument struct {
	ID        primitive.ObjectID   `bson:"_id"`
	MenteeID  primitive.ObjectID   `bson:"mentee"`
	MentorID  primitive.ObjectID   `bson:"mentor"`
	SlotID    primitive.ObjectID   `bson:"slotId"`
	MenteeIDs []primitive.ObjectID `bson:"mentees,omitempty"`
	SlotLabel string               `bson:"slot,omitempty"`
	Note      string               `bson:"message,omitempty"`
	Status    string               `bson:"status"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

func newRequestDocument(req *domainrequest.Request) (requestDocument, error) {
	id, err := primitive.ObjectIDFromHex(req.ID)
	if err != nil {
		return requestDocument{}, err
	}
	mentee, err := primitive.ObjectIDFromHex(req.MenteeID)
	if err != nil {
		return requestDocument{}, err
	}
	mentor, err := primitive.ObjectIDFromHex(req.MentorID)
	if err != nil {
		return requestDocument{}, err
	}
	slot, err := primitive.ObjectIDFromHex(req.SlotID)
	if err != nil {
		return requestDocument{}, err
	}
	return requestDocument{
		ID:        id,
		MenteeID:  mentee,
		MentorID:  mentor,
		SlotID:    slot,
		SlotLabel: req.SlotLabel,
		Note:      req.Note,
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}, nil
}

func (d requestDocument) toAggregate() *domainrequest.Request {
	return &domainrequest.Request{
		ID:        d.ID.Hex(),
		MenteeID:  d.MenteeID.Hex(),
		MentorID:  d.MentorID.Hex(),
		SlotID:    d.SlotID.Hex(),
		SlotLabel: d.SlotLabel,
		Note:      d.Note,
		Status:    domainrequest.Status(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (d requestDocument) requesters() domainrequest.Requesters {
	if len(d.MenteeIDs) > 0 {
		ids := make([]string, 0, len(d.MenteeIDs))
		for _, oid := range d.MenteeIDs {
			ids = append(ids, oid.Hex())
		}
		return domainrequest.ManyRequesters(ids)
	}
	return domainrequest.SingleRequester(d.MenteeID.Hex())
}
