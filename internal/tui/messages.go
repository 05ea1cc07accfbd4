package tui

// RowUpdateMsg updates a single row's fields by column name.
type RowUpdateMsg struct {
	Key    string
	Fields map[string]string
}

// FooterMsg replaces the text next to the spinner, e.g. while toolchains
// are being installed. An empty Text restores the progress counter.
type FooterMsg struct {
	Text string
}

// WorkDoneMsg signals that all background work has completed.
type WorkDoneMsg struct{}
