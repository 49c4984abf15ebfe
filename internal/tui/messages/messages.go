package messages

// ReloadedMsg is sent after the corpus was rebuilt because binding files
// changed on disk.
type ReloadedMsg struct {
	Err error
}

// SelectedMsg reports the outcome of running an item's action.
type SelectedMsg struct {
	Name     string
	Shortcut string
	Err      error
}
