package api

// Claim is an atomic, independently verifiable statement extracted from Source
type Claim struct {
	Text   string `json:"text"`
	Source string `json:"-"`
}

// ClaimSet is the ordered list of claims extracted from one text.
// Order is extraction order and carries no scoring meaning.
type ClaimSet struct {
	Source string
	Claims []Claim
}

// Len returns the number of claims
func (s ClaimSet) Len() int { return len(s.Claims) }

// Texts returns the claim texts in order
func (s ClaimSet) Texts() []string {
	out := make([]string, len(s.Claims))
	for i, c := range s.Claims {
		out[i] = c.Text
	}
	return out
}

// Verdict is the outcome of checking a claim against a context set
type Verdict int

const (
	Unsupported Verdict = iota
	Supported
	// Undetermined means the repeated judgments tied
	Undetermined
)

func (v Verdict) String() string {
	switch v {
	case Supported:
		return "supported"
	case Unsupported:
		return "unsupported"
	case Undetermined:
		return "undetermined"
	default:
		return "unknown"
	}
}

// Vote is a single binary judgment
type Vote int

const (
	Reject Vote = iota
	Support
)

func (v Vote) String() string {
	if v == Support {
		return "support"
	}
	return "reject"
}

// Outcome is the reduction of a set of votes
type Outcome int

const (
	OutcomeReject Outcome = iota
	OutcomeSupport
	OutcomeTie
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSupport:
		return "support"
	case OutcomeReject:
		return "reject"
	default:
		return "tie"
	}
}

// Verdict maps the outcome to a claim verdict; a tie is undetermined
func (o Outcome) Verdict() Verdict {
	switch o {
	case OutcomeSupport:
		return Supported
	case OutcomeReject:
		return Unsupported
	default:
		return Undetermined
	}
}

// ConfusionCounts holds the true positive, false positive and false negative
// counts of one comparison. It is never persisted.
type ConfusionCounts struct {
	TruePositive  int `json:"tp"`
	FalsePositive int `json:"fp"`
	FalseNegative int `json:"fn"`
}
