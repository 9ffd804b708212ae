package mongo

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gravadigital/eventhub-api/internal/domain/chat"
	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/feedback"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
)

// UserRepository stores users in the users collection
type UserRepository struct {
	c   *mongo.Collection
	log *log.Logger
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if _, err := r.c.InsertOne(ctx, toUserDoc(u)); err != nil {
		r.log.Debug("Failed to create user", "subject_id", u.SubjectID, "error", err)
		return translate(err, "user")
	}
	r.log.Info("User created successfully", "id", u.ID, "email", u.Email)
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var d userDoc
	if err := r.c.FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, translate(err, "user")
	}
	return d.toDomain(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *UserRepository) GetBySubjectID(ctx context.Context, subjectID string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"subject_id": subjectID})
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	users := make([]*user.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	cur, err := r.c.Find(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}})
	if err != nil {
		return nil, translate(err, "user")
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "user")
	}
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) (*user.User, error) {
	var d userDoc
	err := r.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"role": string(role), "updated_at": now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return nil, translate(err, "user")
	}
	r.log.Info("User role updated", "id", id, "role", role)
	return d.toDomain(), nil
}

// EventRepository stores events with their embedded roster and circulars
type EventRepository struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *log.Logger
}

func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if _, err := r.c.InsertOne(ctx, toEventDoc(e)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.NewConflict("join code already in use")
		}
		r.log.Error("Failed to create event", "error", err)
		return translate(err, "event")
	}
	r.log.Info("Event created successfully", "id", e.ID, "join_code", e.JoinCode)
	return nil
}

func (r *EventRepository) findOne(ctx context.Context, filter bson.M) (*event.Event, error) {
	var d eventDoc
	if err := r.c.FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, translate(err, "event")
	}
	return d.toDomain(), nil
}

func (r *EventRepository) find(ctx context.Context, filter bson.M, sort bson.D) ([]*event.Event, error) {
	cur, err := r.c.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, translate(err, "event")
	}
	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "event")
	}
	events := make([]*event.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.toDomain())
	}
	return events, nil
}

func (r *EventRepository) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.c.CountDocuments(ctx, bson.M{"_id": id.String()}, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err, "event")
	}
	return n > 0, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *EventRepository) GetByJoinCode(ctx context.Context, code string) (*event.Event, error) {
	return r.findOne(ctx, bson.M{"join_code": code})
}

func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*event.Event, error) {
	return r.find(ctx, bson.M{"organizer_id": organizerID.String()}, bson.D{{Key: "created_at", Value: -1}})
}

func (r *EventRepository) ListByAttendee(ctx context.Context, userID uuid.UUID) ([]*event.Event, error) {
	return r.find(ctx, bson.M{"attendees.user_id": userID.String()}, bson.D{{Key: "start_time", Value: 1}})
}

func (r *EventRepository) Update(ctx context.Context, id uuid.UUID, patch event.Patch) (*event.Event, error) {
	set := bson.M{"updated_at": now()}
	for column, value := range patch.Columns() {
		set[column] = value
	}
	var d eventDoc
	err := r.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return nil, translate(err, "event")
	}
	r.log.Info("Event updated", "id", id)
	return d.toDomain(), nil
}

// Delete removes the event document, then its messages and feedback
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return translate(err, "event")
	}
	if res.DeletedCount == 0 {
		return common.NewNotFound("event not found")
	}
	for _, coll := range []string{collMessages, collFeedbacks} {
		if _, err := r.db.Collection(coll).DeleteMany(ctx, bson.M{"event_id": id.String()}); err != nil {
			r.log.Error("Failed to delete event dependents", "id", id, "collection", coll, "error", err)
			return translate(err, coll)
		}
	}
	r.log.Info("Event deleted", "id", id)
	return nil
}

// AddAttendee pushes the roster entry only when the user is not already on it.
// The filter and the push apply atomically to the one document.
func (r *EventRepository) AddAttendee(ctx context.Context, eventID, userID uuid.UUID) (*event.Attendee, error) {
	a := attendeeDoc{UserID: userID.String(), JoinedAt: now()}
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": eventID.String(), "attendees.user_id": bson.M{"$ne": a.UserID}},
		bson.M{"$push": bson.M{"attendees": a}},
	)
	if err != nil {
		return nil, translate(err, "attendee")
	}
	if res.MatchedCount == 0 {
		ok, err := r.exists(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, common.NewNotFound("event not found")
		}
		return nil, common.NewConflict("already joined this event")
	}
	r.log.Info("Attendee added", "event_id", eventID, "user_id", userID)
	return &event.Attendee{EventID: eventID, UserID: userID, JoinedAt: a.JoinedAt}, nil
}

func (r *EventRepository) RemoveAttendee(ctx context.Context, eventID, userID uuid.UUID) error {
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": eventID.String(), "attendees.user_id": userID.String()},
		bson.M{"$pull": bson.M{"attendees": bson.M{"user_id": userID.String()}}},
	)
	if err != nil {
		return translate(err, "attendee")
	}
	if res.MatchedCount == 0 {
		ok, err := r.exists(ctx, eventID)
		if err != nil {
			return err
		}
		if !ok {
			return common.NewNotFound("event not found")
		}
		return common.NewNotFound("attendee not found")
	}
	r.log.Info("Attendee removed", "event_id", eventID, "user_id", userID)
	return nil
}

func (r *EventRepository) AppendCircular(ctx context.Context, c *event.Circular) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": c.EventID.String()},
		bson.M{"$push": bson.M{"circulars": toCircularDoc(c)}},
	)
	if err != nil {
		return translate(err, "circular")
	}
	if res.MatchedCount == 0 {
		return common.NewNotFound("event not found")
	}
	return nil
}

// ChatRepository stores chat messages
type ChatRepository struct {
	c      *mongo.Collection
	events *mongo.Collection
	log    *log.Logger
}

func (r *ChatRepository) Create(ctx context.Context, m *chat.Message) error {
	n, err := r.events.CountDocuments(ctx, bson.M{"_id": m.EventID.String()}, options.Count().SetLimit(1))
	if err != nil {
		return translate(err, "event")
	}
	if n == 0 {
		return common.NewNotFound("event not found")
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if _, err := r.c.InsertOne(ctx, toMessageDoc(m)); err != nil {
		r.log.Error("Failed to create chat message", "event_id", m.EventID, "error", err)
		return translate(err, "message")
	}
	return nil
}

func (r *ChatRepository) GetByID(ctx context.Context, id uuid.UUID) (*chat.Message, error) {
	var d messageDoc
	if err := r.c.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d); err != nil {
		return nil, translate(err, "message")
	}
	return d.toDomain(), nil
}

func (r *ChatRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*chat.Message, error) {
	cur, err := r.c.Find(ctx, bson.M{"event_id": eventID.String()}, options.Find().SetSort(bson.D{{Key: "sent_at", Value: 1}}))
	if err != nil {
		return nil, translate(err, "message")
	}
	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "message")
	}
	messages := make([]*chat.Message, 0, len(docs))
	for _, d := range docs {
		messages = append(messages, d.toDomain())
	}
	return messages, nil
}

func (r *ChatRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return translate(err, "message")
	}
	if res.DeletedCount == 0 {
		return common.NewNotFound("message not found")
	}
	return nil
}

// FeedbackRepository stores feedback; a unique index on (event_id, user_id)
// rejects a second submission
type FeedbackRepository struct {
	c      *mongo.Collection
	events *mongo.Collection
	log    *log.Logger
}

func (r *FeedbackRepository) Create(ctx context.Context, f *feedback.Feedback) error {
	n, err := r.events.CountDocuments(ctx, bson.M{"_id": f.EventID.String()}, options.Count().SetLimit(1))
	if err != nil {
		return translate(err, "event")
	}
	if n == 0 {
		return common.NewNotFound("event not found")
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if _, err := r.c.InsertOne(ctx, toFeedbackDoc(f)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.NewConflict("feedback already submitted")
		}
		return translate(err, "feedback")
	}
	r.log.Info("Feedback submitted", "event_id", f.EventID, "user_id", f.UserID, "rating", f.Rating)
	return nil
}

func (r *FeedbackRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*feedback.Feedback, error) {
	return r.ListByEvents(ctx, []uuid.UUID{eventID})
}

func (r *FeedbackRepository) ListByEvents(ctx context.Context, eventIDs []uuid.UUID) ([]*feedback.Feedback, error) {
	entries := make([]*feedback.Feedback, 0)
	if len(eventIDs) == 0 {
		return entries, nil
	}
	cur, err := r.c.Find(ctx,
		bson.M{"event_id": bson.M{"$in": idStrings(eventIDs)}},
		options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}}),
	)
	if err != nil {
		return nil, translate(err, "feedback")
	}
	var docs []feedbackDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "feedback")
	}
	for _, d := range docs {
		entries = append(entries, d.toDomain())
	}
	return entries, nil
}
