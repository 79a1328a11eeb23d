package table

// Direction is the order of a sorted column.
type Direction int

const (
	// Unsorted marks a column that is not the sort key.
	Unsorted Direction = iota
	Ascending
	Descending
)

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return ""
	}
}

// MarshalText encodes the direction as "asc", "desc" or "".
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes the output of MarshalText.
func (d *Direction) UnmarshalText(text []byte) error {
	*d = ParseDirection(string(text))
	return nil
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) Direction {
	switch s {
	case "asc":
		return Ascending
	case "desc":
		return Descending
	default:
		return Unsorted
	}
}

// Sort names the column rows are ordered by. The zero value is unsorted.
type Sort struct {
	Column    string
	Direction Direction
}

// Active reports whether a sort column is selected.
func (s Sort) Active() bool {
	return s.Column != "" && s.Direction != Unsorted
}

// State is everything the user can change about the view.
type State struct {
	OpenOnly bool
	Sort     Sort
}

// NewState returns the initial state: open bugs only, unsorted.
func NewState() State {
	return State{OpenOnly: true}
}

// Event is a user interaction that changes State.
type Event interface {
	apply(State) State
}

// SetOpenOnly sets the open-only filter to Value.
type SetOpenOnly struct {
	Value bool
}

func (e SetOpenOnly) apply(s State) State {
	s.OpenOnly = e.Value
	return s
}

// ToggleOpenOnly flips the open-only filter.
type ToggleOpenOnly struct{}

func (ToggleOpenOnly) apply(s State) State {
	s.OpenOnly = !s.OpenOnly
	return s
}

// SortBy is a click on a column header. Clicking the active column flips its
// direction; clicking any other column sorts by it ascending. Unknown columns
// leave the state unchanged.
type SortBy struct {
	Column string
}

func (e SortBy) apply(s State) State {
	if _, ok := columnIndex[e.Column]; !ok {
		return s
	}

	if s.Sort.Column == e.Column && s.Sort.Direction == Ascending {
		s.Sort.Direction = Descending
		return s
	}
	if s.Sort.Column == e.Column && s.Sort.Direction == Descending {
		s.Sort.Direction = Ascending
		return s
	}

	s.Sort = Sort{Column: e.Column, Direction: Ascending}
	return s
}

// Update returns the state after e. It never mutates s.
func Update(s State, e Event) State {
	if e == nil {
		return s
	}
	return e.apply(s)
}
