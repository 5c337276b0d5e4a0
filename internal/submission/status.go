package submission

import "fmt"

// Status is the chain's view of a submitted account or transaction.
type Status uint8

const (
	// StatusLocal is the state of a record created locally that the chain has
	// not acknowledged yet.
	StatusLocal Status = iota
	StatusReceived
	StatusCommitted
	StatusAbsent
	StatusFinalized
)

var statusNames = [...]string{
	StatusLocal:     "local",
	StatusReceived:  "received",
	StatusCommitted: "committed",
	StatusAbsent:    "absent",
	StatusFinalized: "finalized",
}

// ParseStatus parses the names used by the chain node ("received", "committed",
// "absent", "finalized") and "local".
func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return Status(st), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s Status) IsValid() bool {
	return int(s) < len(statusNames)
}

func (s Status) String() string {
	if s.IsValid() {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// IsTerminal reports whether the chain will not move the record any further.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusAbsent, StatusFinalized:
		return true
	case StatusLocal, StatusReceived, StatusCommitted:
		return false
	default:
		return false
	}
}

// IsPending reports whether the record is waiting for the chain.
func (s Status) IsPending() bool {
	switch s {
	case StatusLocal, StatusReceived, StatusCommitted:
		return true
	case StatusAbsent, StatusFinalized:
		return false
	default:
		return false
	}
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
