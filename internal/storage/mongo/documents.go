package mongo

import (
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/eventhub-api/internal/domain/chat"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/feedback"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
)

// Documents use string ids; uuid.UUID would otherwise encode as a binary array.

type userDoc struct {
	ID          string    `bson:"_id"`
	SubjectID   string    `bson:"subject_id"`
	Email       string    `bson:"email"`
	DisplayName string    `bson:"display_name"`
	AvatarURL   string    `bson:"avatar_url,omitempty"`
	Role        string    `bson:"role"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type attendeeDoc struct {
	UserID   string    `bson:"user_id"`
	JoinedAt time.Time `bson:"joined_at"`
}

type circularDoc struct {
	ID         string    `bson:"id"`
	Kind       string    `bson:"kind"`
	Content    string    `bson:"content,omitempty"`
	AudioRef   string    `bson:"audio_ref,omitempty"`
	SentAt     time.Time `bson:"sent_at"`
	SentByName string    `bson:"sent_by_name"`
}

// eventDoc embeds the roster and circulars so a join is a single-document update
type eventDoc struct {
	ID          string        `bson:"_id"`
	Name        string        `bson:"name"`
	Description string        `bson:"description"`
	StartTime   time.Time     `bson:"start_time"`
	Location    string        `bson:"location"`
	OrganizerID string        `bson:"organizer_id"`
	JoinCode    string        `bson:"join_code"`
	Attendees   []attendeeDoc `bson:"attendees"`
	Circulars   []circularDoc `bson:"circulars"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"`
}

type messageDoc struct {
	ID         string    `bson:"_id"`
	EventID    string    `bson:"event_id"`
	UserID     string    `bson:"user_id"`
	SenderName string    `bson:"sender_name"`
	Content    string    `bson:"content"`
	Kind       string    `bson:"kind"`
	FileRef    string    `bson:"file_ref,omitempty"`
	FileName   string    `bson:"file_name,omitempty"`
	FileSize   int64     `bson:"file_size,omitempty"`
	MimeType   string    `bson:"mime_type,omitempty"`
	SentAt     time.Time `bson:"sent_at"`
}

type feedbackDoc struct {
	ID          string    `bson:"_id"`
	EventID     string    `bson:"event_id"`
	UserID      string    `bson:"user_id"`
	Rating      int       `bson:"rating"`
	Comment     string    `bson:"comment"`
	SubmittedAt time.Time `bson:"submitted_at"`
}

func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func toUserDoc(u *user.User) userDoc {
	return userDoc{
		ID:          u.ID.String(),
		SubjectID:   u.SubjectID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (d userDoc) toDomain() *user.User {
	return &user.User{
		ID:          parseID(d.ID),
		SubjectID:   d.SubjectID,
		Email:       d.Email,
		DisplayName: d.DisplayName,
		AvatarURL:   d.AvatarURL,
		Role:        user.Role(d.Role),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toCircularDoc(c *event.Circular) circularDoc {
	return circularDoc{
		ID:         c.ID.String(),
		Kind:       string(c.Kind),
		Content:    c.Content,
		AudioRef:   c.AudioRef,
		SentAt:     c.SentAt,
		SentByName: c.SentByName,
	}
}

func toEventDoc(e *event.Event) eventDoc {
	d := eventDoc{
		ID:          e.ID.String(),
		Name:        e.Name,
		Description: e.Description,
		StartTime:   e.StartTime,
		Location:    e.Location,
		OrganizerID: e.OrganizerID.String(),
		JoinCode:    e.JoinCode,
		Attendees:   make([]attendeeDoc, 0, len(e.Attendees)),
		Circulars:   make([]circularDoc, 0, len(e.Circulars)),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	for _, a := range e.Attendees {
		d.Attendees = append(d.Attendees, attendeeDoc{UserID: a.UserID.String(), JoinedAt: a.JoinedAt})
	}
	for i := range e.Circulars {
		d.Circulars = append(d.Circulars, toCircularDoc(&e.Circulars[i]))
	}
	return d
}

func (d eventDoc) toDomain() *event.Event {
	e := &event.Event{
		ID:          parseID(d.ID),
		Name:        d.Name,
		Description: d.Description,
		StartTime:   d.StartTime.UTC(),
		Location:    d.Location,
		OrganizerID: parseID(d.OrganizerID),
		JoinCode:    d.JoinCode,
		Attendees:   make([]event.Attendee, 0, len(d.Attendees)),
		Circulars:   make([]event.Circular, 0, len(d.Circulars)),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	for _, a := range d.Attendees {
		e.Attendees = append(e.Attendees, event.Attendee{EventID: e.ID, UserID: parseID(a.UserID), JoinedAt: a.JoinedAt.UTC()})
	}
	for _, c := range d.Circulars {
		e.Circulars = append(e.Circulars, event.Circular{
			ID:         parseID(c.ID),
			EventID:    e.ID,
			Kind:       event.CircularKind(c.Kind),
			Content:    c.Content,
			AudioRef:   c.AudioRef,
			SentAt:     c.SentAt.UTC(),
			SentByName: c.SentByName,
		})
	}
	e.SortChildren()
	return e
}

func toMessageDoc(m *chat.Message) messageDoc {
	return messageDoc{
		ID:         m.ID.String(),
		EventID:    m.EventID.String(),
		UserID:     m.UserID.String(),
		SenderName: m.SenderName,
		Content:    m.Content,
		Kind:       string(m.Kind),
		FileRef:    m.FileRef,
		FileName:   m.FileName,
		FileSize:   m.FileSize,
		MimeType:   m.MimeType,
		SentAt:     m.SentAt,
	}
}

func (d messageDoc) toDomain() *chat.Message {
	return &chat.Message{
		ID:         parseID(d.ID),
		EventID:    parseID(d.EventID),
		UserID:     parseID(d.UserID),
		SenderName: d.SenderName,
		Content:    d.Content,
		Kind:       chat.Kind(d.Kind),
		FileRef:    d.FileRef,
		FileName:   d.FileName,
		FileSize:   d.FileSize,
		MimeType:   d.MimeType,
		SentAt:     d.SentAt.UTC(),
	}
}

func toFeedbackDoc(f *feedback.Feedback) feedbackDoc {
	return feedbackDoc{
		ID:          f.ID.String(),
		EventID:     f.EventID.String(),
		UserID:      f.UserID.String(),
		Rating:      f.Rating,
		Comment:     f.Comment,
		SubmittedAt: f.SubmittedAt,
	}
}

func (d feedbackDoc) toDomain() *feedback.Feedback {
	return &feedback.Feedback{
		ID:          parseID(d.ID),
		EventID:     parseID(d.EventID),
		UserID:      parseID(d.UserID),
		Rating:      d.Rating,
		Comment:     d.Comment,
		SubmittedAt: d.SubmittedAt.UTC(),
	}
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
