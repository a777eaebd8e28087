package request

// Requesters identifies who holds one accepted request: legacy records carry
// a single mentee id, group records carry a mentee list. The variant is
// explicit so callers never sniff the stored shape.
type Requesters struct {
	single string
	many   []string
}

// SingleRequester wraps the lone mentee of a one-to-one request.
func SingleRequester(menteeID string) Requesters {
	return Requesters{single: menteeID}
}

// ManyRequesters wraps the mentee list of a group request.
func ManyRequesters(menteeIDs []string) Requesters {
	return Requesters{many: append([]string(nil), menteeIDs...)}
}

// Contains reports whether userID is among the requesters.
func (r Requesters) Contains(userID string) bool {
	if r.single != "" && r.single == userID {
		return true
	}
	for _, id := range r.many {
		if id == userID {
			return true
		}
	}
	return false
}

// IDs lists every requester id, single first when present.
func (r Requesters) IDs() []string {
	ids := make([]string, 0, len(r.many)+1)
	if r.single != "" {
		ids = append(ids, r.single)
	}
	return append(ids, r.many...)
}
