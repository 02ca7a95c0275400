package flow

// Action labels the outcome of a node's Post phase. It is the sole
// mechanism selecting the next edge during a flow walk: the engine looks
// up (current node, action) in the edge table and terminates the walk when
// no edge is registered.
//
// ActionDefault and ActionError cover the built-in control labels; any
// other string value is a domain-specific label agreed between the node
// and the graph author.
type Action string

// Built-in actions.
const (
	// ActionDefault is the action used when Post returns the empty string.
	ActionDefault Action = "default"

	// ActionError is a conventional label for routing to a recovery node.
	// The engine attaches no special behavior to it.
	ActionError Action = "error"
)

// orDefault normalizes the empty action to ActionDefault.
func (a Action) orDefault() Action {
	if a == "" {
		return ActionDefault
	}
	return a
}
