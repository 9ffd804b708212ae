// Package policy decides who may see or change an event and its sub-resources.
//
// Authorization rules:
//   - The organizer of an event may do anything to it
//   - Attendees on the roster may read the event, its circulars, chat and feedback,
//     send chat messages, and (with the attendee role) submit feedback
//   - Any user with the organizer role may preview any event
//   - Everyone else is denied
//
// All predicates work on already-loaded records and never fail; callers turn a
// false result into an authorization error at the boundary.
package policy

import (
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
)

// IsOrganizerOf reports whether u owns e.
func IsOrganizerOf(u *user.User, e *event.Event) bool {
	if u == nil || e == nil {
		return false
	}
	return e.IsOrganizer(u.ID)
}

// IsAttendeeOf reports whether u is on the roster of e.
func IsAttendeeOf(u *user.User, e *event.Event) bool {
	if u == nil || e == nil {
		return false
	}
	return e.HasAttendee(u.ID)
}

// IsMemberOf reports whether u is the organizer or an attendee of e.
func IsMemberOf(u *user.User, e *event.Event) bool {
	return IsOrganizerOf(u, e) || IsAttendeeOf(u, e)
}

// CanViewEvent allows members, and any organizer-role user as a preview.
func CanViewEvent(u *user.User, e *event.Event) bool {
	if IsMemberOf(u, e) {
		return true
	}
	return u != nil && e != nil && u.IsOrganizer()
}

// CanManageEvent covers update, delete and roster management.
func CanManageEvent(u *user.User, e *event.Event) bool {
	return IsOrganizerOf(u, e)
}

// CanPostAnnouncement covers circulars and announcement chat messages.
func CanPostAnnouncement(u *user.User, e *event.Event) bool {
	return IsOrganizerOf(u, e)
}

// CanViewCirculars is limited to members.
func CanViewCirculars(u *user.User, e *event.Event) bool {
	return IsMemberOf(u, e)
}

func CanSendChat(u *user.User, e *event.Event) bool {
	return IsMemberOf(u, e)
}

func CanViewChat(u *user.User, e *event.Event) bool {
	return IsMemberOf(u, e)
}

func CanDeleteChat(u *user.User, e *event.Event) bool {
	return IsOrganizerOf(u, e)
}

// CanSubmitFeedback requires the attendee role and a roster entry.
func CanSubmitFeedback(u *user.User, e *event.Event) bool {
	return u != nil && u.IsAttendee() && IsAttendeeOf(u, e)
}

func CanViewFeedback(u *user.User, e *event.Event) bool {
	return IsMemberOf(u, e)
}
