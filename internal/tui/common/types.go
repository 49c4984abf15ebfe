package common

import "lyxs/internal/launcher"

// ModelReader defines the interface that views use to read model state
type ModelReader interface {
	InputView() string
	Items() []launcher.Item
	Cursor() int
	StatusView() string
	HelpView() string
}
