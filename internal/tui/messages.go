package tui

// RowUpdateMsg updates a single row's fields by column name.
type RowUpdateMsg struct {
	Key    string
	Fields map[string]string
}

// StatusUpdate builds a RowUpdateMsg that sets the STATUS column and,
// when detail is non-empty, the DETAIL column.
func StatusUpdate(key, status, detail string) RowUpdateMsg {
	fields := map[string]string{"STATUS": status}
	if detail != "" {
		fields["DETAIL"] = detail
	}
	return RowUpdateMsg{Key: key, Fields: fields}
}

// WorkDoneMsg signals that all background work has completed.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error; the TUI should quit.
type ErrorMsg struct {
	Err error
}
