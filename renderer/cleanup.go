package renderer

import "log/slog"

type cleanup struct {
	name string
	fn   func()
}

// cleanupStack releases resources in the reverse order of their creation.
type cleanupStack struct {
	steps  []cleanup
	logger *slog.Logger
}

func (s *cleanupStack) push(name string, fn func()) {
	s.steps = append(s.steps, cleanup{name: name, fn: fn})
}

func (s *cleanupStack) len() int {
	return len(s.steps)
}

// run pops and calls every function. The stack is empty afterwards so calling
// run again does nothing.
func (s *cleanupStack) run() {
	for len(s.steps) > 0 {
		last := s.steps[len(s.steps)-1]
		s.steps = s.steps[:len(s.steps)-1]

		if s.logger != nil {
			s.logger.Debug("destroying", "resource", last.name)
		}
		last.fn()
	}
}
