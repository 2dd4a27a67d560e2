package domain

// Envelope is the uniform result of a tool dispatch.
type Envelope struct {
	Success bool           `json:"success"`
	Payload any            `json:"payload"`
	Error   *EnvelopeError `json:"error,omitempty"`
}

// EnvelopeError carries the stable kind callers branch on.
type EnvelopeError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// SuccessEnvelope wraps a handler payload.
func SuccessEnvelope(payload any) Envelope {
	return Envelope{Success: true, Payload: payload}
}

// FailureEnvelope classifies err; unclassified errors become InternalError.
func FailureEnvelope(err error) Envelope {
	kind, ok := KindFrom(err)
	if !ok {
		kind = KindInternal
	}
	msg := Message(err)
	if msg == "" {
		msg = string(kind)
	}
	return Envelope{
		Success: false,
		Error: &EnvelopeError{
			Kind:    kind,
			Message: msg,
		},
	}
}

// ErrorKind returns the failure kind or empty for successful envelopes.
func (e Envelope) ErrorKind() Kind {
	if e.Error == nil {
		return ""
	}
	return e.Error.Kind
}
