package devtools

import (
	"fmt"
	"html"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gookit/color"

	"siegepath/pkg/engine/world"
	"siegepath/pkg/game/renderer"
	"siegepath/pkg/game/state"
)

// symbolClasses maps map symbols to the CSS class they are drawn with
var symbolClasses = map[rune]string{
	symbolWalkable:  "floor",
	symbolStructure: "structure",
	symbolBlocked:   "blocked",
	symbolWaypoint:  "waypoint",
	symbolTarget:    "target",
	symbolAgent:     "agent",
}

const screenshotHead = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>siegepath - Screenshot</title>
    <style>
        body {
            background-color: #1a1a2e;
            color: #eee;
            font-family: 'Courier New', monospace;
            padding: 20px;
        }
        .header {
            color: #bb86fc;
            font-size: 18px;
            margin-bottom: 10px;
        }
        .subtitle {
            color: #888;
            margin-bottom: 20px;
        }
        .map-container {
            background-color: #0f0f1a;
            padding: 20px;
            border-radius: 8px;
            display: inline-block;
            margin: 20px 0;
        }
        .map-row {
            white-space: pre;
            line-height: 1.2;
            font-size: 16px;
        }
        .floor { color: #444; }
        .structure { color: #aaaa00; font-weight: bold; }
        .blocked { color: #ff4444; }
        .waypoint { color: #4444ff; }
        .target { color: #00ffff; font-weight: bold; }
        .agent { color: #00ff00; font-weight: bold; }
        .agents {
            margin-top: 20px;
            color: #888;
        }
        .messages {
            margin-top: 20px;
            border-top: 1px solid #333;
            padding-top: 10px;
        }
        .message { color: #ccc; margin: 5px 0; }
    </style>
</head>
<body>
`

// WriteScreenshotHTML renders the whole grid with agents and their paths as
// an HTML page.
func WriteScreenshotHTML(w io.Writer, s *state.Session) error {
	var page strings.Builder
	page.WriteString(screenshotHead)

	// Header
	page.WriteString(fmt.Sprintf(`    <div class="header">%s</div>`+"\n", html.EscapeString(s.Scenario.Name)))
	page.WriteString(fmt.Sprintf(`    <div class="subtitle">%dx%d cells, %d structures, tick %d</div>`+"\n",
		s.Grid.Cols(), s.Grid.Rows(), s.Placer.Count(), s.Ticks))

	// Map container
	page.WriteString(`    <div class="map-container">` + "\n")

	lock := s.Grid.SearchLock()
	lock.Lock()
	o := buildOverlay(s)
	for y := 0; y < s.Grid.Rows(); y++ {
		page.WriteString(`        <div class="map-row">`)
		for x := 0; x < s.Grid.Cols(); x++ {
			sym := cellSymbol(s, o, s.Grid.GetCell(x, y))
			page.WriteString(fmt.Sprintf(`<span class="%s">%c</span>`, symbolClasses[sym], sym))
		}
		page.WriteString("</div>\n")
	}
	lock.Unlock()

	page.WriteString(`    </div>` + "\n")

	// Agents
	page.WriteString(`    <div class="agents">` + "\n")
	for _, a := range s.Agents() {
		cell := s.Grid.CellAt(a.Position())
		page.WriteString(fmt.Sprintf(`        <div><span class="agent">%s</span> %s at %s, %d waypoints left</div>`+"\n",
			html.EscapeString(a.ID()), a.State(), cellLabel(cell), len(a.Remaining())))
	}
	page.WriteString(`    </div>` + "\n")

	// Messages
	if len(s.Messages) > 0 {
		page.WriteString(`    <div class="messages">` + "\n")
		for _, msg := range s.Messages {
			// Strip ANSI codes for HTML output
			page.WriteString(fmt.Sprintf(`        <div class="message">%s</div>`+"\n", html.EscapeString(color.ClearCode(renderer.StripMarkup(msg)))))
		}
		page.WriteString(`    </div>` + "\n")
	}

	page.WriteString(`</body>
</html>
`)

	_, err := io.WriteString(w, page.String())
	return err
}

// SaveScreenshotHTML writes a timestamped screenshot file into the working
// directory and returns its name.
func SaveScreenshotHTML(s *state.Session) (string, error) {
	filename := fmt.Sprintf("screenshot-%s.html", time.Now().Format("20060102-150405"))
	f, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteScreenshotHTML(f, s); err != nil {
		return filename, err
	}
	return filename, nil
}

func cellLabel(c *world.Cell) string {
	return fmt.Sprintf("%d,%d", c.GridX(), c.GridY())
}
