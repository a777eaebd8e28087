package chat

import "errors"

// DenyReason classifies why a join or send was refused. Reasons are part of
// the client contract: UIs tell "you are not part of this conversation"
// apart from "try again" by the reason code.
type DenyReason string

const (
	DenyInvalidIdentifier DenyReason = "invalid-identifier"
	DenySlotNotFound      DenyReason = "slot-not-found"
	DenyNoAcceptedRequest DenyReason = "no-accepted-booking"
	DenyNotAuthorized     DenyReason = "not-authorized-for-slot"
)

// AccessDenied is an authorization verdict, not a fault: the caller's
// connection stays usable and a retry with different credentials is allowed.
type AccessDenied struct {
	Reason DenyReason
}

func (e *AccessDenied) Error() string {
	return "chat: access denied: " + string(e.Reason)
}

// Denied reports whether err is an authorization deny and returns its reason.
func Denied(err error) (DenyReason, bool) {
	var denied *AccessDenied
	if errors.As(err, &denied) {
		return denied.Reason, true
	}
	return "", false
}

// ValidID reports whether s is a well-formed slot or user identifier:
// 24 hexadecimal characters, the canonical ObjectID text form.
func ValidID(s string) bool {
	if len(s) != 24 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
