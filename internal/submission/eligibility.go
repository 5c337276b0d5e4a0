package submission

// Message is the status line shown next to an account that cannot transact.
type Message uint8

const (
	MessageNone Message = iota
	MessagePending
	MessageFailed
)

func (m Message) String() string {
	switch m {
	case MessagePending:
		return "pending"
	case MessageFailed:
		return "failed"
	default:
		return ""
	}
}

// Actions lists which user actions are available for an account.
type Actions struct {
	Send           bool
	Receive        bool
	ShieldUnshield bool
	// RetryRemove shows the retry and remove controls of a failed submission.
	RetryRemove bool
	Message     Message
}

// Eligibility derives the available actions from the submission status and
// whether the account is read-only. Every status maps to exactly one row.
//
//	status                 read-only  send   receive  shield  retry/remove
//	local/received/committed   any    no     no       no      no  (pending)
//	absent                     any    no     no       no      yes (failed)
//	finalized                  no     yes    yes      yes     no
//	finalized                  yes    no     yes      no      no
func Eligibility(status Status, readOnly bool) Actions {
	switch status {
	case StatusLocal, StatusReceived, StatusCommitted:
		return Actions{Message: MessagePending}
	case StatusAbsent:
		return Actions{RetryRemove: true, Message: MessageFailed}
	case StatusFinalized:
		return Actions{
			Send:           !readOnly,
			Receive:        true,
			ShieldUnshield: !readOnly,
		}
	default:
		// Unknown values behave like a pending submission: nothing is enabled.
		return Actions{Message: MessagePending}
	}
}
