package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Banner printed by the CLI before interactive commands
const Banner = `
  ╔═╗╔═╗╔═╗╔╗╔╔═╗╔═╗  ╔═╗╔═╗╦  ╦╔═╗╦═╗
  ║║║╠═╣║ ║║║║║ ╦╠═╣  ╚═╗╠═╣╚╗╔╝║╣ ╠╦╝
  ╩ ╩╩ ╩╚═╝╝╚╝╚═╝╩ ╩  ╚═╝╩ ╩ ╚╝ ╚═╝╩╚═
`

var (
	mu           sync.Mutex
	out          io.Writer = os.Stdout
	errOut       io.Writer = os.Stderr
	colorEnabled           = isTerminal(os.Stdout)
	quiet        bool
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// SetColorEnabled turns ANSI colors on or off. Colors default to on only
// when stdout is a terminal.
func SetColorEnabled(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	colorEnabled = enabled
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = enabled
}

// SetOutput redirects normal and error output
func SetOutput(stdout, stderr io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = stdout
	errOut = stderr
}

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		mu.Lock()
		enabled := colorEnabled
		mu.Unlock()
		if !enabled {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

func write(toErr bool, s string) {
	mu.Lock()
	w := out
	if toErr {
		w = errOut
	} else if quiet {
		mu.Unlock()
		return
	}
	mu.Unlock()
	fmt.Fprint(w, s)
}

// PrintBanner prints the banner in cyan
func PrintBanner() {
	write(false, Cyan(Banner))
}

// PrintError prints an error message in red to stderr
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	write(true, Red(msg)+"\n")
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	write(false, Green(msg)+"\n")
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	write(false, fmt.Sprintf("%s: %s\n", Cyan(label), Yellow(value)))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	write(false, Yellow(msg)+"\n")
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	write(false, Magenta(msg)+"\n")
}

// Println prints plain text unless quiet
func Println(a ...interface{}) {
	write(false, fmt.Sprintln(a...))
}

// Printf prints formatted plain text unless quiet
func Printf(format string, a ...interface{}) {
	write(false, fmt.Sprintf(format, a...))
}
