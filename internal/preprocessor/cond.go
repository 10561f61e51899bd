package preprocessor

// BranchState tells whether the current conditional region is live.
type BranchState int

const (
	// Active regions are expanded and emitted.
	Active BranchState = iota
	// Search regions sit in a live chain whose condition has not matched yet.
	Search
	// Ignore regions are dead: the enclosing region is inactive or the
	// chain already matched.
	Ignore
)

func (s BranchState) String() string {
	switch s {
	case Active:
		return "active"
	case Search:
		return "search"
	case Ignore:
		return "ignore"
	}
	return "unknown"
}

// conditions is the branch-state stack machine driven by #if and friends.
type conditions struct {
	state BranchState
	stack []condFrame
}

// condFrame is the state saved by an open conditional.
type condFrame struct {
	prev BranchState
	line int
}

func (c *conditions) active() bool { return c.state == Active }

func (c *conditions) depth() int { return len(c.stack) }

// enterIf pushes the current state and opens a new conditional at line.
func (c *conditions) enterIf(cond bool, line int) {
	c.stack = append(c.stack, condFrame{prev: c.state, line: line})
	switch {
	case c.state != Active:
		c.state = Ignore
	case cond:
		c.state = Active
	default:
		c.state = Search
	}
}

// enterElif moves to the next branch of the chain; #else passes true. A
// chain that already had its active branch, or sits in a dead region,
// never becomes active again.
func (c *conditions) enterElif(cond bool) {
	switch {
	case c.state != Search:
		c.state = Ignore
	case cond:
		c.state = Active
	}
}

// exitIf closes the innermost conditional. It reports false when no
// conditional is open.
func (c *conditions) exitIf() bool {
	n := len(c.stack)
	if n == 0 {
		return false
	}
	c.state = c.stack[n-1].prev
	c.stack = c.stack[:n-1]
	return true
}

// openLine returns the line of the innermost open conditional.
func (c *conditions) openLine() int {
	if len(c.stack) == 0 {
		return 0
	}
	return c.stack[len(c.stack)-1].line
}

// unwind pops back to depth, restoring the state saved there.
func (c *conditions) unwind(depth int) {
	for len(c.stack) > depth {
		c.exitIf()
	}
}

func (c *conditions) reset() {
	c.state = Active
	c.stack = c.stack[:0]
}
