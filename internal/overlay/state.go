package overlay

// Visibility is whether the chat panel is shown.
type Visibility int

const (
	Closed Visibility = iota
	Open
)

func (v Visibility) String() string {
	if v == Open {
		return "open"
	}
	return "closed"
}

// Phase is the loading sub-state of a mounted overlay.
type Phase int

const (
	Unmounted Phase = iota
	LoadingInitial
	Ready
	LoadingOlder
)

func (p Phase) String() string {
	switch p {
	case LoadingInitial:
		return "loading-initial"
	case Ready:
		return "ready"
	case LoadingOlder:
		return "loading-older"
	default:
		return "unmounted"
	}
}
