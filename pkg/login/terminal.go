package login

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/sidkik/docsync/pkg/errors"
	"github.com/sidkik/docsync/pkg/remote"
	"github.com/sidkik/docsync/pkg/session"
)

const instructionsTemplate = `To log in, open the following page in your browser and sign in:

    %s

Then copy the value of the %q cookie from your browser's developer tools
and paste it below. The input is hidden.

`

// Verifier checks a session token against the remote service.
type Verifier interface {
	LoginURL() string
	FetchAccountInfo(ctx context.Context, sessionToken string) (remote.AccountInfo, error)
	FetchSecondaryToken(ctx context.Context, sessionToken string) (string, error)
}

// TerminalAgent logs in by having the user sign in with their browser, and
// then paste the resulting session cookie into the terminal.
type TerminalAgent struct {
	verifier Verifier
	clock    clockwork.Clock

	// sessionLifetime is assumed if the service doesn't say when the session
	// expires.
	sessionLifetime time.Duration

	in  io.Reader
	out io.Writer

	// Terminal control, replaced by the unit tests.
	isTerminal   func(fd int) bool
	getState     func(fd int) (*term.State, error)
	restore      func(fd int, state *term.State) error
	readPassword func(fd int) ([]byte, error)
}

// NewTerminalAgent creates a TerminalAgent that prompts on stdin and stdout.
func NewTerminalAgent(verifier Verifier, clock clockwork.Clock,
	sessionLifetime time.Duration) *TerminalAgent {
	return &TerminalAgent{
		verifier:        verifier,
		clock:           clock,
		sessionLifetime: sessionLifetime,
		in:              os.Stdin,
		out:             os.Stdout,
		isTerminal:      term.IsTerminal,
		getState:        term.GetState,
		restore:         term.Restore,
		readPassword:    term.ReadPassword,
	}
}

// Login implements the Agent interface.
func (agent *TerminalAgent) Login(ctx context.Context) (session.Bundle, error) {
	fmt.Fprintf(agent.out, instructionsTemplate, agent.verifier.LoginURL(),
		remote.SessionCookieName)
	fmt.Fprint(agent.out, "Session cookie: ")

	input, err := agent.readSecret(ctx)
	if err != nil {
		return session.Bundle{}, errors.WithContext(err, "read session cookie")
	}

	token := parseCookieInput(input)
	if token == "" {
		return session.Bundle{}, errors.NewFriendlyError("No session cookie was entered.")
	}

	info, err := agent.verifier.FetchAccountInfo(ctx, token)
	if err != nil {
		return session.Bundle{}, errors.WithContext(err, "verify session")
	}

	now := agent.clock.Now()
	expiry := now.Add(agent.sessionLifetime)
	if cookie := info.SessionCookie; cookie != nil {
		if cookie.Value != "" {
			token = cookie.Value
		}

		switch {
		case cookie.MaxAge > 0:
			expiry = now.Add(time.Duration(cookie.MaxAge) * time.Second)
		case !cookie.Expires.IsZero():
			expiry = cookie.Expires
		}
	}

	// The load balancer cookie only improves request routing, so failing to
	// get it doesn't prevent logging in.
	secondary, err := agent.verifier.FetchSecondaryToken(ctx, token)
	if err != nil {
		log.WithError(err).Debug("Failed to fetch load balancer cookie")
	}

	return session.Bundle{
		SessionToken:   token,
		SecondaryToken: secondary,
		CSRFToken:      info.CSRFToken,
		Account:        info.Account,
		ExpiresAt:      expiry.Unix(),
	}, nil
}

type secretResult struct {
	secret string
	err    error
}

// readSecret reads a line from the input without echoing it if the input is a
// terminal. If the context is cancelled first, the terminal is restored
// before returning.
func (agent *TerminalAgent) readSecret(ctx context.Context) (string, error) {
	done := make(chan secretResult, 1)

	f, ok := agent.in.(*os.File)
	if !ok || !agent.isTerminal(int(f.Fd())) {
		go func() {
			line, err := bufio.NewReader(agent.in).ReadString('\n')
			if err != nil && !(err == io.EOF && line != "") {
				done <- secretResult{err: err}
				return
			}
			done <- secretResult{secret: line}
		}()

		select {
		case res := <-done:
			return res.secret, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	fd := int(f.Fd())
	state, err := agent.getState(fd)
	if err != nil {
		return "", errors.WithContext(err, "get terminal state")
	}

	go func() {
		secret, err := agent.readPassword(fd)
		done <- secretResult{secret: string(secret), err: err}
	}()

	select {
	case res := <-done:
		fmt.Fprintln(agent.out)
		return res.secret, res.err
	case <-ctx.Done():
		if err := agent.restore(fd, state); err != nil {
			log.WithError(err).Warn("Failed to restore terminal")
		}
		fmt.Fprintln(agent.out)
		return "", ctx.Err()
	}
}

// parseCookieInput accepts either the bare cookie value, or the
// `name=value` form that browsers show when copying a cookie.
func parseCookieInput(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, remote.SessionCookieName+"=")
	if i := strings.Index(input, ";"); i >= 0 {
		input = input[:i]
	}
	return strings.TrimSpace(input)
}
