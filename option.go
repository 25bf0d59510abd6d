package geoform

// Option is a selectable record. Countries and states share the shape.
type Option struct {
	ID    int
	Label string
}

// Valid reports whether the option can be offered as a choice.
func (o Option) Valid() bool {
	return o.ID > 0 && o.Label != ""
}

// ErrorInfo is the only error shape handed to views.
type ErrorInfo struct {
	Message string
}

// FetchState is a snapshot of one asynchronous list load.
//
// The zero value is the reset state: no items, not loading, no error. Items
// may be non-empty while Loading is true; a refetch keeps the previous list
// visible until its own result lands.
type FetchState struct {
	Items   []Option
	Loading bool
	Err     *ErrorInfo
}

// Failed reports whether the last completed fetch failed.
func (s FetchState) Failed() bool {
	return s.Err != nil
}

// Empty reports whether a settled fetch produced no items.
func (s FetchState) Empty() bool {
	return !s.Loading && s.Err == nil && len(s.Items) == 0
}

// Clone returns a copy that shares no memory with s.
func (s FetchState) Clone() FetchState {
	out := FetchState{Loading: s.Loading}
	if s.Items != nil {
		out.Items = make([]Option, len(s.Items))
		copy(out.Items, s.Items)
	}
	if s.Err != nil {
		e := *s.Err
		out.Err = &e
	}
	return out
}
