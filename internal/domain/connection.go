package domain

// ConnectionState is the state of the stream connection.
type ConnectionState int

const (
	// StateUnauthenticated means no usable credential; the auth gate is up.
	StateUnauthenticated ConnectionState = iota
	// StateConnecting means verification or the stream handshake is in flight.
	StateConnecting
	// StateOpen means the stream is established.
	StateOpen
	// StateClosedRetrying means the stream dropped and a retry is scheduled or exhausted.
	StateClosedRetrying
	// StateClosedUnauthorized means the server rejected the credential; waits for a new one.
	StateClosedUnauthorized
)

func (s ConnectionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosedRetrying:
		return "closed_retrying"
	case StateClosedUnauthorized:
		return "closed_unauthorized"
	default:
		return "unknown"
	}
}

// Status indicator texts.
const (
	StatusConnected    = "CONNECTED"
	StatusDisconnected = "DISCONNECTED"
)
