package summaries

// Mode selects the summary style and its word-count contract.
type Mode string

const (
	ModeBrief     Mode = "brief"
	ModeDetailed  Mode = "detailed"
	ModeKeyPoints Mode = "key-points"
	ModeExecutive Mode = "executive"
)

// Per-bullet word cap for key-points summaries.
const keyPointMaxWords = 40

type band struct {
	min, max int
}

var bands = map[Mode]band{
	ModeBrief:     {50, 150},
	ModeDetailed:  {300, 800},
	ModeExecutive: {100, 250},
	// key-points has no total band; each bullet is capped instead.
	ModeKeyPoints: {0, 0},
}

// ParseMode validates a mode string.
func ParseMode(raw string) (Mode, error) {
	mode := Mode(raw)
	if _, ok := bands[mode]; !ok {
		return "", ErrUnknownMode
	}
	return mode, nil
}

// Band returns the inclusive word-count band for a mode. Zero bounds
// mean the total is unconstrained (key-points).
func (m Mode) Band() (min, max int) {
	b := bands[m]
	return b.min, b.max
}

// Bulleted reports whether the mode produces bullet points.
func (m Mode) Bulleted() bool {
	return m == ModeKeyPoints
}
