package retry

// Verdict is the tri-state result of evaluating a counter against its maximum.
type Verdict int

const (
	NotReached Verdict = iota
	Reached
	Exceeded
)

func (v Verdict) String() string {
	switch v {
	case NotReached:
		return "not_reached"
	case Reached:
		return "reached"
	case Exceeded:
		return "exceeded"
	default:
		return "unknown"
	}
}

// verdictFor classifies a freshly incremented count.
func verdictFor(count, max int) Verdict {
	switch {
	case count < max:
		return NotReached
	case count == max:
		return Reached
	default:
		return Exceeded
	}
}
