package task

// Status is the outcome class of a task run.
type Status int

const (
	StatusSucceeded Status = iota
	StatusNotRecognized
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusNotRecognized:
		return "not_recognized"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const notRecognizedMessage = "Task not recognized or not implemented"

// Result is what a task run produced.
type Result struct {
	Status  Status
	Message string
	// Payload, when set, is returned to the caller in place of the message.
	Payload any
	Reason  string
	Kind    ErrorKind
}

func Succeeded(message string) Result {
	return Result{Status: StatusSucceeded, Message: message}
}

func SucceededWith(message string, payload any) Result {
	return Result{Status: StatusSucceeded, Message: message, Payload: payload}
}

func NotRecognized() Result {
	return Result{Status: StatusNotRecognized, Reason: notRecognizedMessage}
}

func Failed(err error) Result {
	return Result{Status: StatusFailed, Reason: PublicMessage(err), Kind: KindOf(err)}
}

// Envelope is the uniform response shape: exactly one of Message or Error is
// set, unless Payload replaces the body.
type Envelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Payload any    `json:"-"`
}

// Body returns the value to serialize for the caller.
func (e Envelope) Body() any {
	if e.Payload != nil {
		return e.Payload
	}
	return e
}

func (r Result) Envelope() Envelope {
	switch r.Status {
	case StatusSucceeded:
		return Envelope{Message: r.Message, Payload: r.Payload}
	default:
		return Envelope{Error: r.Reason}
	}
}
