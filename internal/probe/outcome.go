package probe

// ErrorKind classifies why an attempt against a host failed.
type ErrorKind int

const (
	// KindNone marks a successful attempt.
	KindNone ErrorKind = iota

	// KindConnection covers TCP connect failures, timeouts and protocol
	// errors before or outside the TLS and authentication phases.
	KindConnection

	// KindTLS covers STARTTLS negotiation and TLS handshake failures.
	KindTLS

	// KindAuth means the server explicitly rejected the credentials.
	KindAuth

	// KindSend means authentication succeeded but the test message was
	// rejected during submission.
	KindSend

	// KindInternal marks an unexpected fault caught at the dispatcher
	// boundary, such as a panic inside a worker.
	KindInternal
)

// String returns the stable identifier used in CSV reports.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return ""
	case KindConnection:
		return "connection_error"
	case KindTLS:
		return "tls_error"
	case KindAuth:
		return "auth_error"
	case KindSend:
		return "send_error"
	case KindInternal:
		return "internal_error"
	default:
		return "unknown_error"
	}
}

// Outcome is the terminal, immutable result of one credential attempt.
// UsedPort is the port of the attempt that produced the final result, or 0
// if no connection was ever attempted (internal faults only).
type Outcome struct {
	Host     string
	Username string
	UsedPort int
	Success  bool
	Kind     ErrorKind
	Detail   string
	Raw      string
}
