package terminal

// Status is the lifecycle state of a payment session
type Status string

const (
	StatusIdle         Status = "idle"
	StatusInitializing Status = "initializing"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusCollecting   Status = "collecting"
	StatusProcessing   Status = "processing"
	StatusSuccess      Status = "success"
	StatusError        Status = "error"
	StatusCanceled     Status = "canceled"
)

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusCanceled
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}

var transitions = map[Status][]Status{
	StatusIdle:         {StatusInitializing, StatusCanceled},
	StatusInitializing: {StatusConnecting, StatusError, StatusCanceled},
	StatusConnecting:   {StatusConnected, StatusError, StatusCanceled},
	StatusConnected:    {StatusCollecting, StatusConnecting, StatusCanceled},
	StatusCollecting:   {StatusProcessing, StatusError, StatusCanceled},
	StatusProcessing:   {StatusSuccess, StatusError, StatusCanceled},
	StatusError:        {StatusInitializing, StatusConnecting, StatusConnected, StatusCanceled},
}

// CanTransitionTo reports whether from -> to is a legal edge
func CanTransitionTo(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
