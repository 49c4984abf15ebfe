// Package launcher adapts the binding corpus and usage statistics to a
// quick-launcher host. A host creates one Session, calls Initialize once,
// HandleQuery on every keystroke and Finalize on shutdown.
package launcher

import "strings"

// ItemID identifies results produced by this launcher to the host.
const ItemID = "lyx-shortcuts"

// Query is the text typed into the host launcher.
type Query struct {
	Raw     string // full input, including the trigger
	Trigger string // prefix that routes input to this launcher
}

// NewQuery builds a triggered query for text typed without the trigger, as
// the terminal host and the CLI do.
func NewQuery(trigger, text string) Query {
	return Query{Raw: trigger + text, Trigger: trigger}
}

// IsTriggered reports whether the input starts with the trigger. An empty
// trigger routes every query here.
func (q Query) IsTriggered() bool {
	return strings.HasPrefix(q.Raw, q.Trigger)
}

// String returns the input with the trigger removed.
func (q Query) String() string {
	return strings.TrimPrefix(q.Raw, q.Trigger)
}

// Item is one result row shown by the host.
type Item struct {
	ID         string
	Text       string // binding name, e.g. \epsilon
	Subtext    string // shortcut, e.g. M-m e
	Completion string // text the host puts in the input on completion

	// Action runs when the user picks the item. It records the selection
	// and copies the binding name.
	Action func() error
}
