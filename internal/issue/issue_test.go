// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	ids := []Id{
		WheelNotFoundId,
		PatternNotFoundId,
		InvalidWheelId,
		ToolNotFoundId,
		ToolFailedId,
		UnsupportedBinaryId,
		ConfigLoadFailedId,
		ProbeFailedId,
		PermissionDeniedId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true

		if Get(id) == nil {
			t.Errorf("Get(%d) returned nil, every ID needs a catalog entry", id)
		}
	}

	if WheelNotFoundId != 1 {
		t.Errorf("WheelNotFoundId = %d, want 1", WheelNotFoundId)
	}
	if len(Values()) != len(ids) {
		t.Errorf("Values() has %d entries, want %d", len(Values()), len(ids))
	}
}

func TestIssue_MarkdownMsg(t *testing.T) {
	tests := []struct {
		id   Id
		want string
	}{
		{WheelNotFoundId, "No wheel found"},
		{PatternNotFoundId, "missing from the wheel"},
		{ToolNotFoundId, "install_name_tool"},
		{ProbeFailedId, "smoke test failed"},
	}

	for _, tt := range tests {
		msg := Get(tt.id).MarkdownMsg()
		if !strings.Contains(string(msg), tt.want) {
			t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.want)
		}
	}
}

func TestIssue_LinksAreCloned(t *testing.T) {
	issue := Get(WheelNotFoundId)
	links := issue.ExtLinks()
	if len(links) == 0 {
		t.Fatal("ExtLinks() returned no links")
	}

	links[0] = "modified"
	if issue.ExtLinks()[0] == "modified" {
		t.Error("ExtLinks() should return a copy")
	}
}

func TestIssue_Render(t *testing.T) {
	original := render
	defer func() { render = original }()

	var gotMarkdown, gotStyle string
	render = func(in, stylePath string) (string, error) {
		gotMarkdown = in
		gotStyle = stylePath
		return "rendered", nil
	}

	out, err := Get(ProbeFailedId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if out != "rendered" {
		t.Errorf("Render() = %q, want %q", out, "rendered")
	}
	if gotStyle != "notty" {
		t.Errorf("style = %q, want %q", gotStyle, "notty")
	}
	if !strings.Contains(gotMarkdown, "## See also") {
		t.Error("rendered markdown should contain the See also section")
	}
	if !strings.Contains(gotMarkdown, "discourse.llvm.org") {
		t.Error("rendered markdown should contain the external link")
	}
}

func TestIssue_RenderWithGlamour(t *testing.T) {
	out, err := Get(PatternNotFoundId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(out, "Expected file or directory is missing") {
		t.Errorf("Render() output missing heading:\n%s", out)
	}
}

func TestConfigLoadFailed_AvoidsConfigCommands(t *testing.T) {
	msg := string(Get(ConfigLoadFailedId).MarkdownMsg())

	for _, want := range []string{"--config", "EDITWHEEL_"} {
		if !strings.Contains(msg, want) {
			t.Errorf("ConfigLoadFailed message should mention %q", want)
		}
	}
	// Every edit-wheel command loads the configuration first, so suggesting
	// one would fail the same way.
	for _, bad := range []string{"config show", "config init"} {
		if strings.Contains(msg, bad) {
			t.Errorf("ConfigLoadFailed message should not suggest %q", bad)
		}
	}
}
