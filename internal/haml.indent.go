package internal

// IndentTracker turns raw indentation runs into depths.
// The unit character and width are fixed by the first indented line.
type IndentTracker struct {
	unitChar  byte
	unitWidth int
	depth     int
	history   []int
}

// NewIndentTracker creates a tracker at depth 0 with no unit
func NewIndentTracker() *IndentTracker {
	return &IndentTracker{}
}

// Process validates an indentation run and makes its depth current.
// The returned error message is one of the ErrMsgIndent* constants.
func (t *IndentTracker) Process(run string) (int, error) {
	if run == "" {
		t.depth = 0
		return 0, nil
	}

	if t.unitChar == 0 {
		for i := 1; i < len(run); i++ {
			if run[i] != run[0] {
				return t.depth, newIndentFault(ErrMsgIndentMixed)
			}
		}
		t.unitChar = run[0]
		t.unitWidth = len(run)
	}

	for i := 0; i < len(run); i++ {
		if run[i] != t.unitChar {
			return t.depth, newIndentFault(ErrMsgIndentMixed)
		}
	}
	if len(run)%t.unitWidth != 0 {
		return t.depth, newIndentFault(ErrMsgIndentNotMultiple)
	}

	depth := len(run) / t.unitWidth
	if depth > t.depth+1 {
		return t.depth, newIndentFault(ErrMsgIndentJump)
	}
	t.depth = depth
	return depth, nil
}

// Measure estimates the depth of a run without validating or recording it.
// Used for the opaque lines of a silent comment block.
func (t *IndentTracker) Measure(run string) int {
	if run == "" {
		return 0
	}
	if t.unitWidth == 0 {
		return 1
	}
	return len(run) / t.unitWidth
}

// Depth returns the current depth
func (t *IndentTracker) Depth() int {
	return t.depth
}

// Unit returns the indent character and width, or zero values when unset
func (t *IndentTracker) Unit() (byte, int) {
	return t.unitChar, t.unitWidth
}

// Push saves the current depth
func (t *IndentTracker) Push() {
	t.history = append(t.history, t.depth)
}

// Pop restores the most recently pushed depth
func (t *IndentTracker) Pop() {
	if len(t.history) == 0 {
		return
	}
	t.depth = t.history[len(t.history)-1]
	t.history = t.history[:len(t.history)-1]
}

// indentFault is the position-less error produced by the tracker;
// the lexer converts it to an IndentError.
type indentFault struct {
	message string
}

func newIndentFault(message string) *indentFault {
	return &indentFault{message: message}
}

func (e *indentFault) Error() string {
	return e.message
}
