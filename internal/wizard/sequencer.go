package wizard

// Sequencer tracks the 1-based position in a wizard. It never moves more than one
// step forward and never past the bounds.
type Sequencer struct {
	current int
	total   int
}

func NewSequencer(total int) *Sequencer {
	return SequencerAt(1, total)
}

// SequencerAt restores a position, clamped into 1..total.
func SequencerAt(current, total int) *Sequencer {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}
	return &Sequencer{current: current, total: total}
}

func (s *Sequencer) Current() int { return s.current }
func (s *Sequencer) Total() int   { return s.total }

// Next advances by one when valid and not on the last step.
func (s *Sequencer) Next(valid bool) bool {
	if !valid || s.current >= s.total {
		return false
	}
	s.current++
	return true
}

// Back moves one step back. On the first step it reports exit and stays put.
func (s *Sequencer) Back() (exit bool) {
	if s.current <= 1 {
		return true
	}
	s.current--
	return false
}

// GoTo jumps to step. Out of range values are ignored.
func (s *Sequencer) GoTo(step int) bool {
	if step < 1 || step > s.total {
		return false
	}
	s.current = step
	return true
}

// Progress is current/total in 0..1.
func (s *Sequencer) Progress() float64 {
	return float64(s.current) / float64(s.total)
}

func (s *Sequencer) Percent() float64 {
	return s.Progress() * 100
}

func (s *Sequencer) Reset() {
	s.current = 1
}

func (s *Sequencer) IsLast() bool {
	return s.current == s.total
}
