// Package input turns raw device events into session intents. Terminal
// commands are read line by line on a background goroutine so the
// simulation never blocks on stdin.
package input

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// IsInteractive reports whether stdin is a terminal, so callers know
// whether to print a prompt.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ReadLines reads command lines from r until EOF or ctx is cancelled and
// sends each non-empty line as a terminal RawInput. The channel is closed
// when reading stops.
func ReadLines(ctx context.Context, r io.Reader) <-chan RawInput {
	out := make(chan RawInput)
	go func() {
		defer close(out)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case out <- RawInput{Device: DeviceTerminal, Code: line, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			log.Printf("Cannot read commands: %v", err)
		}
	}()
	return out
}

// Parse runs a raw event through every layer and returns its intent
func Parse(raw RawInput) Intent {
	return MapToIntent(NewDebouncedInput(raw))
}
