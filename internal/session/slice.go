package session

// Slice is one feature's {loading, error, data} triple. Every request issued
// against a slice gets the next sequence number; only the latest one may
// settle it.
type Slice[T any] struct {
	value   T
	present bool
	loading bool
	err     string
	seq     uint64
}

// SliceView is a read-only copy of a Slice used for rendering.
type SliceView[T any] struct {
	Value   T
	Present bool
	Loading bool
	Err     string
}

func (s *Slice[T]) begin() uint64 {
	var zero T
	s.seq++
	s.value = zero
	s.present = false
	s.err = ""
	s.loading = true
	return s.seq
}

// settle reports false when seq is no longer the latest issued request.
func (s *Slice[T]) settle(seq uint64, value T, errMsg string) bool {
	if seq != s.seq {
		return false
	}
	s.loading = false
	if errMsg != "" {
		var zero T
		s.value = zero
		s.present = false
		s.err = errMsg
		return true
	}
	s.value = value
	s.present = true
	s.err = ""
	return true
}

func (s *Slice[T]) reject(msg string) {
	s.err = msg
}

func (s *Slice[T]) clear() {
	var zero T
	s.value = zero
	s.present = false
	s.err = ""
}

func (s *Slice[T]) view() SliceView[T] {
	return SliceView[T]{
		Value:   s.value,
		Present: s.present,
		Loading: s.loading,
		Err:     s.err,
	}
}
