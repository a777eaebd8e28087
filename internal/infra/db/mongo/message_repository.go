package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainchat "nepalmentor/internal/domain/chat"
)

// MessageStore is the durable conversation log, one document per message.
type MessageStore struct {
	col *mongo.Collection
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{col: db.Collection("messages")}
}

func (s *MessageStore) Append(ctx context.Context, msg domainchat.Message) (domainchat.Message, error) {
	doc, err := newMessageDocument(msg)
	if err != nil {
		return domainchat.Message{}, err
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return domainchat.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

func (s *MessageStore) History(ctx context.Context, slotID string, limit int) ([]domainchat.Message, error) {
	slotOID, err := primitive.ObjectIDFromHex(slotID)
	if err != nil {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.col.Find(ctx, bson.M{"slotId": slotOID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []domainchat.Message
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toMessage())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type messageDocument struct {
	ID         string              `bson:"_id"`
	SlotID     primitive.ObjectID  `bson:"slotId"`
	SenderID   primitive.ObjectID  `bson:"sender"`
	ReceiverID *primitive.ObjectID `bson:"receiver,omitempty"`
	Body       string              `bson:"message"`
	CreatedAt  time.Time           `bson:"createdAt"`
}

func newMessageDocument(msg domainchat.Message) (messageDocument, error) {
	slotOID, err := primitive.ObjectIDFromHex(msg.SlotID)
	if err != nil {
		return messageDocument{}, err
	}
	senderOID, err := primitive.ObjectIDFromHex(msg.SenderID)
	if err != nil {
		return messageDocument{}, err
	}
	doc := messageDocument{
		ID:        msg.ID,
		SlotID:    slotOID,
		SenderID:  senderOID,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
	}
	if msg.ReceiverID != "" {
		receiverOID, err := primitive.ObjectIDFromHex(msg.ReceiverID)
		if err != nil {
			return messageDocument{}, err
		}
		doc.ReceiverID = &receiverOID
	}
	return doc, nil
}

func (d messageDocument) toMessage() domainchat.Message {
	msg := domainchat.Message{
		ID:        d.ID,
		SlotID:    d.SlotID.Hex(),
		SenderID:  d.SenderID.Hex(),
		Body:      d.Body,
		CreatedAt: d.CreatedAt,
	}
	if d.ReceiverID != nil {
		msg.ReceiverID = d.ReceiverID.Hex()
	}
	return msg
}
