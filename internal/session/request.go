package session

import (
	"context"
	"time"
)

// Kind names the slice a request belongs to.
type Kind int

const (
	KindIdeas Kind = iota + 1
	KindParagraph
	KindSuggestion
)

func (k Kind) String() string {
	switch k {
	case KindIdeas:
		return "ideas"
	case KindParagraph:
		return "paragraph"
	case KindSuggestion:
		return "suggestion"
	default:
		return "unknown"
	}
}

type runFunc func(ctx context.Context, svc Service) (Outcome, error)

// Request is a remote call whose inputs were captured when it was issued.
type Request struct {
	kind Kind
	seq  uint64
	run  runFunc
}

// Kind reports which slice the request will settle.
func (r *Request) Kind() Kind {
	return r.kind
}

// Seq is the request's sequence number within its slice.
func (r *Request) Seq() uint64 {
	return r.seq
}

// Outcome is the result of executing a Request.
type Outcome struct {
	Kind     Kind
	Seq      uint64
	Ideas    []string
	Text     string
	Err      error
	Duration time.Duration
}
