package util

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/buger/goterm"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/docsync/pkg/errors"
)

// ClearProgress is the escape sequence that clears the line written by a
// ProgressPrinter.
const ClearProgress = "\r\033[2K"

// Mocked for unit testing.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// HandleFatalError prints the error and exits. If any error in the chain has
// a friendly message, only that message is shown.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")

	if msg, ok := errors.GetFriendlyMessage(err); ok {
		fmt.Fprintln(stderr, msg)
	} else {
		fmt.Fprintf(stderr, "Error: %s\n", err)
	}
	exit(1)
}

// HandlePanic logs a panic and exits. It must be deferred.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("panic", r).Error("Unexpected crash")
		exit(1)
	}
}

// SignalContext returns a context that's cancelled when the user interrupts
// the process.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// PromptYesOrNo asks the user a yes or no question, and returns whether they
// answered yes. Anything other than "y" or "yes" is treated as no.
func PromptYesOrNo(prompt string) (bool, error) {
	fmt.Fprintf(stdout, "%s (y/N) ", prompt)
	resp, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !(err == io.EOF && resp != "") {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(resp)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// PrintSuccess prints a message prefixed with a green check mark.
func PrintSuccess(out io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(out, "%s %s\n", goterm.Color("✔", goterm.GREEN), fmt.Sprintf(format, a...))
}

// PrintFailure prints a message prefixed with a red cross.
func PrintFailure(out io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(out, "%s %s\n", goterm.Color("✘", goterm.RED), fmt.Sprintf(format, a...))
}

// ProgressPrinter shows that a long running operation is still in progress by
// printing a dot every tick.
type ProgressPrinter struct {
	out  io.Writer
	msg  string
	tick time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewProgressPrinter returns a ProgressPrinter. It doesn't print anything
// until Run is called.
func NewProgressPrinter(out io.Writer, msg string) *ProgressPrinter {
	return &ProgressPrinter{
		out:  out,
		msg:  msg,
		tick: 500 * time.Millisecond,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Run prints progress until Stop is called. It should be run in a goroutine.
func (pp *ProgressPrinter) Run() {
	defer close(pp.done)

	ticker := time.NewTicker(pp.tick)
	defer ticker.Stop()

	fmt.Fprint(pp.out, pp.msg)
	for {
		select {
		case <-pp.stop:
			return
		case <-ticker.C:
			fmt.Fprint(pp.out, ".")
		}
	}
}

// Stop stops printing and moves to a new line.
func (pp *ProgressPrinter) Stop() {
	pp.StopWithPrint("\n")
}

// StopWithPrint stops printing, and then prints `msg`.
func (pp *ProgressPrinter) StopWithPrint(msg string) {
	close(pp.stop)
	<-pp.done
	fmt.Fprint(pp.out, msg)
}
