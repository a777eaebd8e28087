package chat

import (
	"context"
	"errors"
	"fmt"

	"nepalmentor/internal/domain/availability"
	domainchat "nepalmentor/internal/domain/chat"
	"nepalmentor/internal/domain/request"
)

// Resolver decides whether a user may enter a slot's chat room. Trust is
// derived, never stored: every call consults the availability and request
// directories fresh, so revoking a request revokes future joins without any
// cleanup step. Memberships already established are not re-checked; a
// request rejected after acceptance does not evict an open room member.
type Resolver struct {
	Schedules availability.Repository
	Requests  request.Repository
}

// Resolve returns the role under which userID may join slotID's room, or an
// AccessDenied carrying the reason. Directory faults come back wrapped in
// ErrDirectoryUnavailable so callers can tell "not allowed" from "could not
// check".
//
// The mentor path is tried first and is exclusive: a user who owns any
// schedule never falls through to mentee evaluation for the same slot.
func (r *Resolver) Resolve(ctx context.Context, slotID, userID string) (domainchat.Role, error) {
	if !domainchat.ValidID(slotID) || !domainchat.ValidID(userID) {
		return "", &domainchat.AccessDenied{Reason: domainchat.DenyInvalidIdentifier}
	}

	schedule, err := r.Schedules.ByMentor(ctx, userID)
	switch {
	case err == nil:
		if _, ok := schedule.Find(slotID); !ok {
			return "", &domainchat.AccessDenied{Reason: domainchat.DenySlotNotFound}
		}
		return domainchat.RoleMentor, nil
	case errors.Is(err, availability.ErrNotFound):
		// Not a mentor at all; evaluate the mentee path.
	default:
		return "", fmt.Errorf("%w: schedule lookup: %v", domainchat.ErrDirectoryUnavailable, err)
	}

	accepted, err := r.Requests.AcceptedForSlot(ctx, slotID)
	if err != nil {
		return "", fmt.Errorf("%w: request lookup: %v", domainchat.ErrDirectoryUnavailable, err)
	}
	if len(accepted) == 0 {
		return "", &domainchat.AccessDenied{Reason: domainchat.DenyNoAcceptedRequest}
	}
	for _, requesters := range accepted {
		if requesters.Contains(userID) {
			return domainchat.RoleMentee, nil
		}
	}
	return "", &domainchat.AccessDenied{Reason: domainchat.DenyNotAuthorized}
}
