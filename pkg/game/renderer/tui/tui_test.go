package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"

	"siegepath/pkg/game/agent"
	"siegepath/pkg/game/scenario"
	"siegepath/pkg/game/state"
)

func newRenderer(buf *bytes.Buffer) *TUIRenderer {
	t := NewWriter(buf)
	t.Init()
	return t
}

func TestFormatText(t *testing.T) {
	r := newRenderer(&bytes.Buffer{})
	tests := []struct {
		msg  string
		args []any
		want string
	}{
		{"plain %d", []any{3}, "plain 3"},
		{"Map dumped to FILE{%s}", []any{"/tmp/map.txt"}, "Map dumped to /tmp/map.txt"},
		{"AGENT{grunt-1} arrived at CELL{4,7}", nil, "grunt-1 arrived at 4,7"},
		{"DENIED{%s}", []any{"cell 2,2 occupied"}, "cell 2,2 occupied"},
		{"press ACTION{toggle}", nil, "press toggle"},
		{"GT{NO_SUCH_KEY}", nil, "NO_SUCH_KEY"},
		{"{bare}", nil, "bare"},
		{"BOGUS{x}", nil, "ERROR, function not found: BOGUS -> x"},
	}
	for _, tt := range tests {
		if got := color.ClearCode(r.FormatText(tt.msg, tt.args...)); got != tt.want {
			t.Errorf("FormatText(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestGetViewportSize_Minimum(t *testing.T) {
	rows, cols := newRenderer(&bytes.Buffer{}).GetViewportSize()
	if rows < ViewportMinRows || cols < ViewportMinCols {
		t.Errorf("GetViewportSize() = %d, %d, want at least %d, %d", rows, cols, ViewportMinRows, ViewportMinCols)
	}
}

func TestRenderFrame(t *testing.T) {
	s, err := state.NewSession(&scenario.Scenario{
		Name:         "frame",
		World:        scenario.WorldSpec{Width: 300, Height: 180, CellWidth: 60},
		PollInterval: 2 * time.Millisecond,
		Agents: []scenario.AgentSpec{
			{ID: "a", Start: scenario.Point{X: 30, Y: 90}, Target: scenario.Point{X: 270, Y: 90}},
		},
		Structures: []scenario.StructureSpec{{X: 150, Y: 90}},
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	a, _ := s.Coordinator.Agent("a")
	deadline := time.Now().Add(2 * time.Second)
	for a.Searches() == 0 || a.State() != agent.Idle {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the first search")
		}
		time.Sleep(time.Millisecond)
	}
	s.AddMessage("hello")

	var buf bytes.Buffer
	newRenderer(&buf).RenderFrame(s)
	out := color.ClearCode(buf.String())

	// Four waypoints, the last one under the target
	if n := strings.Count(out, IconWaypoint); n != 3 {
		t.Errorf("frame shows %d waypoints, want 3:\n%s", n, out)
	}
	for _, want := range []string{
		"frame",
		"structures 1",
		"blocked 1",
		IconAgent,
		IconStructure,
		IconTarget,
		"Agents: 1",
		"a 0,1 → 4,1",
		"waypoints 4 cost 48",
		"hello",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("frame missing %q:\n%s", want, out)
		}
	}
}

func TestRenderFrame_HiddenGrid(t *testing.T) {
	s, err := state.NewSession(&scenario.Scenario{
		Name:  "empty",
		World: scenario.WorldSpec{Width: 180, Height: 60, CellWidth: 60},
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	var buf bytes.Buffer
	r := newRenderer(&buf)
	r.RenderFrame(s)
	if out := color.ClearCode(buf.String()); !strings.Contains(out, strings.Repeat(IconFloor, 3)) {
		t.Errorf("grid floor not shown:\n%s", out)
	}

	s.ShowGrid = false
	buf.Reset()
	r.RenderFrame(s)
	if out := color.ClearCode(buf.String()); strings.Contains(out, IconFloor) {
		t.Errorf("floor shown with grid hidden:\n%s", out)
	}
	if out := color.ClearCode(buf.String()); !strings.Contains(out, "(no messages)") {
		t.Errorf("empty message pane missing:\n%s", out)
	}
}
