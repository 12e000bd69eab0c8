package session

// Status is the lifecycle state of a swap session
type Status int

const (
	Idle Status = iota
	Quoting
	Quoted
	AwaitingSignature
	Submitting
	Succeeded
	Failed
)

var statusNames = map[Status]string{
	Idle:              "idle",
	Quoting:           "quoting",
	Quoted:            "quoted",
	AwaitingSignature: "awaiting_signature",
	Submitting:        "submitting",
	Succeeded:         "succeeded",
	Failed:            "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the attempt is over and needs acknowledging
func (s Status) Terminal() bool {
	return s == Succeeded || s == Failed
}

// InFlight reports whether a swap attempt is currently running
func (s Status) InFlight() bool {
	return s == AwaitingSignature || s == Submitting
}

// transitions lists every allowed status change. Any state may fall back to
// Idle when the input changes or the session is reset.
var transitions = map[Status][]Status{
	Idle:              {Quoting},
	Quoting:           {Quoted, Idle},
	Quoted:            {AwaitingSignature, Idle},
	AwaitingSignature: {Submitting, Failed, Idle},
	Submitting:        {Succeeded, Failed, Idle},
	Succeeded:         {Idle},
	Failed:            {Idle},
}

func canTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
