package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

var installColumns = []Column{
	{Header: "VERSION", Width: 8},
	{Header: "STATUS", Width: 11},
	{Header: "DETAIL", Width: 20},
}

func TestRowUpdateMsg(t *testing.T) {
	m := NewProgressModel("Installing", installColumns)
	m.AddRow("4.1.0", []string{"4.1.0", "pending"})
	m.AddRow("3.4.17", []string{"3.4.17", "pending"})

	updated, _ := m.Update(StatusUpdate("4.1.0", "installed", "/cache/4.1.0"))
	m = updated.(ProgressModel)

	if m.rows[0].Fields[1] != "installed" {
		t.Errorf("expected STATUS=installed, got %q", m.rows[0].Fields[1])
	}
	if m.rows[0].Fields[2] != "/cache/4.1.0" {
		t.Errorf("expected DETAIL=/cache/4.1.0, got %q", m.rows[0].Fields[2])
	}
	if m.rows[1].Fields[1] != "pending" {
		t.Errorf("expected row 2 STATUS=pending, got %q", m.rows[1].Fields[1])
	}
}

func TestStatusUpdateWithoutDetail(t *testing.T) {
	msg := StatusUpdate("4", "downloading", "")
	if _, ok := msg.Fields["DETAIL"]; ok {
		t.Error("expected DETAIL to be left untouched")
	}
	if msg.Fields["STATUS"] != "downloading" {
		t.Errorf("expected STATUS=downloading, got %q", msg.Fields["STATUS"])
	}
}

func TestRowUpdateMsg_UnknownKey(t *testing.T) {
	m := NewProgressModel("Installing", installColumns)
	m.AddRow("4", []string{"4", "pending"})

	updated, _ := m.Update(StatusUpdate("9", "installed", ""))
	m = updated.(ProgressModel)

	if m.rows[0].Fields[1] != "pending" {
		t.Errorf("expected STATUS unchanged, got %q", m.rows[0].Fields[1])
	}
}

func TestWorkDoneMsg(t *testing.T) {
	m := NewProgressModel("Installing", installColumns)

	updated, cmd := m.Update(WorkDoneMsg{})
	m = updated.(ProgressModel)

	if !m.Done() {
		t.Error("expected Done() to be true after WorkDoneMsg")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestErrorMsg(t *testing.T) {
	m := NewProgressModel("Installing", installColumns)

	updated, cmd := m.Update(ErrorMsg{Err: tea.ErrProgramKilled})
	m = updated.(ProgressModel)

	if !m.Done() {
		t.Error("expected Done() to be true after ErrorMsg")
	}
	if m.Err() == nil {
		t.Error("expected Err() to be non-nil")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
	if !strings.Contains(m.View(), "Error:") {
		t.Error("expected error view")
	}
}

func TestView(t *testing.T) {
	m := NewProgressModel("Installing", installColumns)
	m.AddRow("4.1.0", []string{"4.1.0", "pending", "github.com"})
	m.AddRow("3.4.17", []string{"3.4.17", "cached", "/home/me/.local/share/tailbreeze/cli/3.4.17"})

	view := m.View()

	for _, want := range []string{"VERSION", "STATUS", "DETAIL", "4.1.0", "3.4.17", "pending", "cached", "github.com"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
	if strings.Contains(view, "/home/me/.local/share/tailbreeze/cli/3.4.17") {
		t.Error("expected long detail to be truncated")
	}
}

func TestSpinnerTick(t *testing.T) {
	m := NewProgressModel("Installing", installColumns)
	m.AddRow("4", []string{"4", "pending"})

	_, cmd := m.Update(spinner.TickMsg{Time: time.Now()})
	if cmd == nil {
		t.Error("expected next tick command")
	}
}

func TestTickStopsAfterDone(t *testing.T) {
	m := NewProgressModel("Installing", installColumns)
	updated, _ := m.Update(WorkDoneMsg{})
	m = updated.(ProgressModel)

	_, cmd := m.Update(spinner.TickMsg{Time: time.Now()})
	if cmd != nil {
		t.Error("expected no tick command after done")
	}
}

func TestProgressCounts(t *testing.T) {
	m := NewProgressModel("Installing", installColumns)
	m.AddRow("a", []string{"a", "pending"})
	m.AddRow("b", []string{"b", "downloading"})
	m.AddRow("c", []string{"c", "installed"})
	m.AddRow("d", []string{"d", "failed"})

	finished, total := m.progressCounts()
	if total != 4 {
		t.Errorf("expected total=4, got %d", total)
	}
	if finished != 2 {
		t.Errorf("expected finished=2, got %d", finished)
	}
}

func TestViewFooter(t *testing.T) {
	m := NewProgressModel("Installing", installColumns)
	m.AddRow("4", []string{"4", "installed"})

	if !strings.Contains(m.View(), "Installing 1/1...") {
		t.Error("expected footer while not done")
	}

	updated, _ := m.Update(WorkDoneMsg{})
	m = updated.(ProgressModel)
	if strings.Contains(m.View(), "Installing") {
		t.Error("expected footer to disappear when done")
	}
}

func TestCtrlC(t *testing.T) {
	m := NewProgressModel("Installing", installColumns)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(ProgressModel)

	if !m.Done() {
		t.Error("expected Done() to be true after ctrl+c")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestNonEmptyOrDash(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "-"},
		{"  ", "-"},
		{"hello", "hello"},
		{" hello ", "hello"},
	}
	for _, tt := range tests {
		if got := NonEmptyOrDash(tt.input); got != tt.want {
			t.Errorf("NonEmptyOrDash(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"a longer string here", 10, "a longe..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"", 5, ""},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateWithEllipsis(tt.input, tt.max); got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}

func TestDetectMode(t *testing.T) {
	var buf bytes.Buffer
	if got := DetectMode(&buf, false, true); got != ModeJSON {
		t.Errorf("expected ModeJSON, got %v", got)
	}
	if got := DetectMode(&buf, true, false); got != ModePlain {
		t.Errorf("expected ModePlain for plain flag, got %v", got)
	}
	if got := DetectMode(&buf, false, false); got != ModePlain {
		t.Errorf("expected ModePlain for non-file writer, got %v", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{2500 * time.Millisecond, "2.5s"},
		{42 * time.Second, "42s"},
		{125 * time.Second, "2m05s"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestStatusWriterStopClearsLine(t *testing.T) {
	var buf syncBuffer
	sw := NewStatusWriter(&buf)
	sw.Update("starting watcher")
	sw.Stop()
	sw.Stop()
	if !strings.HasSuffix(buf.String(), "\r\033[K") {
		t.Errorf("expected clear sequence at end, got %q", buf.String())
	}
}
