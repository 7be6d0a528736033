package extract

// state is the position of the labeled-paragraph scanner within one scope.
type state int

const (
	stateStart state = iota
	// stateInType expects the next unlabeled paragraph to carry the type.
	stateInType
	// stateAwaitDescription has closed type capture; only a Description label
	// reopens anything.
	stateAwaitDescription
	stateInDescription
	stateDone
)

func (s state) String() string {
	switch s {
	case stateInType:
		return "in-type"
	case stateAwaitDescription:
		return "await-description"
	case stateInDescription:
		return "in-description"
	case stateDone:
		return "done"
	default:
		return "start"
	}
}

type label int

const (
	labelOther label = iota
	labelType
	labelDescription
	labelValues
)

func parseLabel(s string) label {
	switch s {
	case "type":
		return labelType
	case "description":
		return labelDescription
	case "values":
		return labelValues
	default:
		return labelOther
	}
}

// onLabel returns the state after a labeled paragraph.
func (s state) onLabel(l label) state {
	if l == labelOther || s == stateDone {
		return s
	}
	if l == labelDescription {
		return stateInDescription
	}

	typeOpen := s == stateStart || s == stateInType
	switch {
	case l == labelType && typeOpen:
		return stateInType
	case typeOpen:
		return stateStart
	default:
		return stateAwaitDescription
	}
}

// onCapture returns the state after an unlabeled paragraph was consumed as
// the type or the description.
func (s state) onCapture() state {
	switch s {
	case stateInType:
		return stateAwaitDescription
	case stateInDescription:
		return stateDone
	default:
		return s
	}
}
