package devtools

import (
	"fmt"
	"time"

	"siegepath/pkg/game/scenario"
)

// DevScenario returns a hard-coded 40x24 testing map: a maze of walls with
// one gap each, a pillar field and a sealed pocket, crossed by agents of
// every speed. Agent dev-sealed targets the pocket and never finds a path.
func DevScenario() *scenario.Scenario {
	const cell = 60.0
	at := func(x, y int) scenario.Point {
		return scenario.Point{X: float64(x)*cell + cell/2, Y: float64(y)*cell + cell/2}
	}

	scn := &scenario.Scenario{
		Name:         "dev",
		World:        scenario.WorldSpec{Width: 40 * cell, Height: 24 * cell, CellWidth: cell},
		PollInterval: 17 * time.Millisecond,
	}

	// Vertical walls every 6 columns with the gap alternating top and bottom
	for i, x := 0, 6; x < 30; i, x = i+1, x+6 {
		if i%2 == 0 {
			scn.Structures = append(scn.Structures, scenario.StructureSpec{X: float64(x) * cell, Y: 0, W: cell, H: 20 * cell})
		} else {
			scn.Structures = append(scn.Structures, scenario.StructureSpec{X: float64(x) * cell, Y: 4 * cell, W: cell, H: 20 * cell})
		}
	}

	// Pillar field with a 3-cell margin between pillars
	for y := 2; y < 22; y += 4 {
		for x := 32; x < 39; x += 4 {
			p := at(x, y)
			scn.Structures = append(scn.Structures, scenario.StructureSpec{X: p.X, Y: p.Y})
		}
	}

	// Sealed pocket around cell (38,22)
	for _, c := range [][2]int{{37, 21}, {38, 21}, {39, 21}, {37, 22}, {37, 23}} {
		p := at(c[0], c[1])
		scn.Structures = append(scn.Structures, scenario.StructureSpec{X: p.X, Y: p.Y})
	}

	speeds := []float64{60, 120, 240, 480}
	for i, speed := range speeds {
		scn.Agents = append(scn.Agents, scenario.AgentSpec{
			ID:     fmt.Sprintf("dev-%d", i+1),
			Start:  at(1, 2+i*5),
			Target: at(34, 12),
			Speed:  speed,
		})
	}
	scn.Agents = append(scn.Agents, scenario.AgentSpec{
		ID:     "dev-sealed",
		Start:  at(1, 22),
		Target: at(38, 22),
		Speed:  120,
	})
	return scn
}
