package loader

import "strings"

// IncludeCycleError is returned when a chain of include directives loops
// back on one of its own ancestors (A includes B includes A), as opposed to
// a diamond include where the same file is reached twice via unrelated
// branches. Cycle lists the absolute paths of the include chain, from the
// top-level file down to the repeated file.
type IncludeCycleError struct {
	Cycle []string
}

func (e *IncludeCycleError) Error() string {
	return "include cycle detected: " + strings.Join(e.Cycle, " -> ")
}
