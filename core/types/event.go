package types

// Event represents a typed event emitted during state transitions. Attributes
// are string encoded so downstream indexers can persist them without knowing
// the emitting module's types.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
