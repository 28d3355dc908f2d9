// Package cli renders interactive publish progress: colored steps, a
// spinner for long compiles, and per-file output lines.
package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type Spinner struct {
	message string
	stop    chan struct{}
	wg      sync.WaitGroup
}

func NewSpinner(message string) *Spinner {
	return &Spinner{message: message, stop: make(chan struct{})}
}

func (s *Spinner) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fmt.Printf("\r%s %s %s", colorCyan+spinnerFrames[frame%len(spinnerFrames)]+colorReset, s.message, colorGray+"..."+colorReset)
				frame++
			case <-s.stop:
				fmt.Print("\r" + strings.Repeat(" ", len(s.message)+10) + "\r")
				return
			}
		}
	}()
}

func (s *Spinner) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func Header(title string) {
	fmt.Println()
	fmt.Printf("%s %s %s\n", colorBold+colorPurple+"📦", title, colorReset)
	fmt.Printf("%s%s%s\n", colorGray, strings.Repeat("─", len(title)+4), colorReset)
}

func Step(format string, args ...any) {
	fmt.Printf("  %s %s\n", colorCyan+"•"+colorReset, fmt.Sprintf(format, args...))
}

func Success(format string, args ...any) {
	fmt.Printf("%s %s%s%s\n", colorGreen+"✓"+colorReset, colorGreen, fmt.Sprintf(format, args...), colorReset)
}

func Warning(format string, args ...any) {
	fmt.Printf("%s %s%s%s\n", colorYellow+"⚠"+colorReset, colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func Error(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s%s%s\n", colorRed+"✗"+colorReset, colorRed, fmt.Sprintf(format, args...), colorReset)
}

func File(path string) {
	fmt.Printf("    %s %s%s%s\n", colorGray+"│"+colorReset, colorCyan, path, colorReset)
}

func Done(format string, args ...any) {
	fmt.Printf("\n%s %s%s%s\n", colorGreen+"✨"+colorReset, colorGreen+colorBold, fmt.Sprintf(format, args...), colorReset)
}
