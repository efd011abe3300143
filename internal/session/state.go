package session

import "fmt"

// State is one phase of the per-correspondent FSM (§4.5):
// Unauthenticated -> LoginPrompt -> Main -> Topics -> Subtopics ->
// Threads -> Read -> Compose -> World{sub-state}; terminal Goodbye.
type State int

const (
	StateUnauthenticated State = iota
	StateLoginPrompt
	StateMain
	StateTopics
	StateSubtopics
	StateThreads
	StateRead
	StateCompose
	StateWorld
	StateGoodbye
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "Unauthenticated"
	case StateLoginPrompt:
		return "LoginPrompt"
	case StateMain:
		return "Main"
	case StateTopics:
		return "Topics"
	case StateSubtopics:
		return "Subtopics"
	case StateThreads:
		return "Threads"
	case StateRead:
		return "Read"
	case StateCompose:
		return "Compose"
	case StateWorld:
		return "World"
	case StateGoodbye:
		return "Goodbye"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// parent is the state B/U ("back"/"up") returns to from each child
// state (§4.5: "B/U -> parent").
func (s State) parent() State {
	switch s {
	case StateSubtopics:
		return StateTopics
	case StateThreads:
		return StateSubtopics
	case StateRead:
		return StateThreads
	case StateCompose:
		return StateThreads
	case StateTopics, StateWorld:
		return StateMain
	default:
		return StateMain
	}
}
