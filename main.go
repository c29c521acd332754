package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/leonelquinteros/gotext"

	"siegepath/pkg/engine/input"
	"siegepath/pkg/game/devtools"
	"siegepath/pkg/game/gameplay"
	"siegepath/pkg/game/renderer"
	ebitenrenderer "siegepath/pkg/game/renderer/ebiten"
	"siegepath/pkg/game/renderer/tui"
	"siegepath/pkg/game/scenario"
	"siegepath/pkg/game/state"
)

// redrawInterval is how often the terminal frame is redrawn without input
const redrawInterval = 500 * time.Millisecond

func initGettext(lang string) {
	gotext.Configure("locales", lang, "default")
}

func main() {
	scenarioFile := flag.String("scenario", "", "scenario YAML file (default: built-in scenario)")
	rendererName := flag.String("renderer", "tui", "renderer to use: tui or ebiten")
	lang := flag.String("lang", "en_GB", "message language")
	watch := flag.Bool("watch", false, "reload the scenario file when it changes")
	dev := flag.Bool("dev", false, "start on the developer scenario (for testing)")
	ticks := flag.Int("ticks", 0, "run up to this many ticks without a renderer (stopping once every agent arrives), dump the map and exit")
	dumpFile := flag.String("dump", "", "file the map is dumped to (default: map.txt, or stdout with -ticks)")
	tps := flag.Int("tps", 30, "simulation ticks per second in the terminal renderer")
	flag.Parse()

	initGettext(*lang)

	s, err := gameplay.BuildSession(*scenarioFile, *dev)
	if err != nil {
		log.Fatalf("Cannot start session: %v", err)
	}
	defer s.Close()

	if *dumpFile != "" {
		gameplay.DumpFile = *dumpFile
	}

	var watcher *scenario.Watcher
	if *watch && *scenarioFile != "" && !*dev {
		watcher, err = scenario.NewWatcher(*scenarioFile)
		if err != nil {
			log.Fatalf("Cannot watch %s: %v", *scenarioFile, err)
		}
		defer watcher.Close()
		log.Printf("Watching %s for changes", *scenarioFile)
	}

	tick := time.Second / time.Duration(max(*tps, 1))

	switch {
	case *ticks > 0:
		err = runHeadless(s, watcher, *ticks, tick, *dumpFile)
	case *rendererName == "ebiten":
		err = runEbiten(s, watcher)
	case *rendererName == "tui":
		err = runTUI(s, watcher, tick)
	default:
		err = fmt.Errorf("unknown renderer %q", *rendererName)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}

// runHeadless ticks the session in real time until every agent has arrived
// or ticks run out, then dumps the map
func runHeadless(s *state.Session, watcher *scenario.Watcher, ticks int, tick time.Duration, dumpFile string) error {
	for range ticks {
		gameplay.DrainReloads(s, watcher)
		s.Tick(tick)
		if s.AllArrived() {
			break
		}
		time.Sleep(tick)
	}
	log.Printf("Ran %d ticks, %d/%d agents arrived", s.Ticks, countArrived(s), len(s.Agents()))

	if dumpFile == "" {
		return devtools.DumpMap(os.Stdout, s)
	}
	path, err := devtools.DumpMapToFile(s, dumpFile)
	if err != nil {
		return err
	}
	log.Printf("Map dumped to %s", path)
	return nil
}

// runTUI drives the session at a fixed tick and redraws the terminal on
// every command and every redrawInterval
func runTUI(s *state.Session, watcher *scenario.Watcher, tick time.Duration) error {
	renderer.SetRenderer(tui.New())
	renderer.Init()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	lines := input.ReadLines(ctx, os.Stdin)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	redraw := time.NewTicker(redrawInterval)
	defer redraw.Stop()

	// An interactive terminal is only redrawn when the message log changes,
	// so a half-typed command is not wiped every redrawInterval
	interactive := input.IsInteractive()
	var shown string
	draw := func() {
		shown = strings.Join(s.Messages, "\n")
		renderer.Clear()
		renderer.RenderFrame(s)
	}
	draw()

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-lines:
			if !ok {
				// stdin closed; keep simulating until interrupted
				lines = nil
				continue
			}
			if gameplay.ProcessIntent(s, input.Parse(raw)) {
				return nil
			}
			draw()
		case <-ticker.C:
			gameplay.DrainReloads(s, watcher)
			s.Tick(tick)
		case <-redraw.C:
			if !interactive || strings.Join(s.Messages, "\n") != shown {
				draw()
			}
		}
	}
}

// runEbiten hands the session to the graphical renderer until its window
// closes
func runEbiten(s *state.Session, watcher *scenario.Watcher) error {
	e := ebitenrenderer.New(s)
	renderer.SetRenderer(e)
	renderer.Init()
	e.OnUpdate(func() {
		gameplay.DrainReloads(s, watcher)
	})
	return e.Run()
}

func countArrived(s *state.Session) int {
	n := 0
	for _, a := range s.Agents() {
		if a.HasArrived() {
			n++
		}
	}
	return n
}
