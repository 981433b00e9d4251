package models

// LoginTicket carries the result of a successfully verified ID token.
//
// It is constructed by the verifier after signature, issuer, audience and
// expiry checks have all passed, and performs no validation of its own. Both
// fields are fixed at construction time, so a ticket is safe to share across
// goroutines.
type LoginTicket struct {
	envelope string
	payload  *TokenPayload
}

// TicketAttributes is the combined read-only projection of a ticket's
// envelope and payload.
type TicketAttributes struct {
	Envelope string        `json:"envelope,omitempty"`
	Payload  *TokenPayload `json:"payload,omitempty"`
}

// NewLoginTicket creates a ticket holding the given envelope and payload
// verbatim. Either value may be absent (empty envelope, nil payload).
func NewLoginTicket(envelope string, payload *TokenPayload) *LoginTicket {
	return &LoginTicket{
		envelope: envelope,
		payload:  payload,
	}
}

// Envelope returns the encoded token envelope the ticket was constructed
// with, or the empty string when none was provided.
func (t *LoginTicket) Envelope() string {
	return t.envelope
}

// Payload returns the decoded claim set, or nil when none was provided.
func (t *LoginTicket) Payload() *TokenPayload {
	return t.payload
}

// UserID returns the stable subject identifier from the payload. The second
// return value is false when the ticket has no payload or the subject claim
// is empty; callers must treat that as "no usable identity".
func (t *LoginTicket) UserID() (string, bool) {
	if t.payload == nil || t.payload.Sub == "" {
		return "", false
	}
	return t.payload.Sub, true
}

// Attributes returns the envelope and payload as a single record. The
// projection is rebuilt on every call from the immutable fields.
func (t *LoginTicket) Attributes() TicketAttributes {
	return TicketAttributes{
		Envelope: t.envelope,
		Payload:  t.payload,
	}
}
