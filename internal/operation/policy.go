package operation

import "fmt"

// Policy decides what a compiler does with a rule no operation accepts.
type Policy int

const (
	// PolicyAbort fails the whole compilation (default).
	PolicyAbort Policy = iota
	// PolicySkip drops the rule and logs a warning.
	PolicySkip
)

func (p Policy) String() string {
	switch p {
	case PolicyAbort:
		return "abort"
	case PolicySkip:
		return "skip"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses "abort" or "skip". The empty string means abort.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "abort":
		return PolicyAbort, nil
	case "skip":
		return PolicySkip, nil
	default:
		return PolicyAbort, fmt.Errorf("unknown policy %q (want abort or skip)", s)
	}
}
