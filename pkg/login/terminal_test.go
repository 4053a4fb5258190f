package login

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"github.com/sidkik/docsync/pkg/errors"
	"github.com/sidkik/docsync/pkg/remote"
	"github.com/sidkik/docsync/pkg/session"
)

type fakeVerifier struct {
	info         remote.AccountInfo
	infoErr      error
	secondary    string
	secondaryErr error

	gotToken string
}

func (v *fakeVerifier) LoginURL() string {
	return "https://latex.example.com/login"
}

func (v *fakeVerifier) FetchAccountInfo(_ context.Context, token string) (remote.AccountInfo, error) {
	v.gotToken = token
	return v.info, v.infoErr
}

func (v *fakeVerifier) FetchSecondaryToken(context.Context, string) (string, error) {
	return v.secondary, v.secondaryErr
}

func TestTerminalAgentLogin(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cookieExpiry := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	lifetime := 24 * time.Hour

	tests := []struct {
		name      string
		input     string
		verifier  fakeVerifier
		expToken  string
		expBundle session.Bundle
		expError  error
	}{
		{
			name:  "BareValue",
			input: "pasted\n",
			verifier: fakeVerifier{
				info:      remote.AccountInfo{Account: "ada@example.com", CSRFToken: "csrf"},
				secondary: "gclb",
			},
			expToken: "pasted",
			expBundle: session.Bundle{
				SessionToken:   "pasted",
				SecondaryToken: "gclb",
				CSRFToken:      "csrf",
				Account:        "ada@example.com",
				ExpiresAt:      now.Add(lifetime).Unix(),
			},
		},
		{
			name:  "CookieHeaderFormWithoutNewline",
			input: "  overleaf_session2=pasted; Path=/",
			verifier: fakeVerifier{
				info: remote.AccountInfo{Account: "ada@example.com", CSRFToken: "csrf"},
			},
			expToken: "pasted",
			expBundle: session.Bundle{
				SessionToken: "pasted",
				CSRFToken:    "csrf",
				Account:      "ada@example.com",
				ExpiresAt:    now.Add(lifetime).Unix(),
			},
		},
		{
			name:  "RotatedCookieWithExpires",
			input: "pasted\n",
			verifier: fakeVerifier{
				info: remote.AccountInfo{
					Account:   "ada@example.com",
					CSRFToken: "csrf",
					SessionCookie: &http.Cookie{
						Name:    remote.SessionCookieName,
						Value:   "rotated",
						Expires: cookieExpiry,
					},
				},
				secondaryErr: errors.New("unavailable"),
			},
			expToken: "pasted",
			expBundle: session.Bundle{
				SessionToken: "rotated",
				CSRFToken:    "csrf",
				Account:      "ada@example.com",
				ExpiresAt:    cookieExpiry.Unix(),
			},
		},
		{
			name:  "CookieMaxAge",
			input: "pasted\n",
			verifier: fakeVerifier{
				info: remote.AccountInfo{
					CSRFToken: "csrf",
					SessionCookie: &http.Cookie{
						Name:    remote.SessionCookieName,
						MaxAge:  3600,
						Expires: cookieExpiry,
					},
				},
			},
			expToken: "pasted",
			expBundle: session.Bundle{
				SessionToken: "pasted",
				CSRFToken:    "csrf",
				ExpiresAt:    now.Add(time.Hour).Unix(),
			},
		},
		{
			name:     "EmptyInput",
			input:    "\n",
			expError: errors.NewFriendlyError("No session cookie was entered."),
		},
		{
			name:     "Rejected",
			input:    "pasted\n",
			verifier: fakeVerifier{infoErr: errors.New("rejected")},
			expToken: "pasted",
			expError: errors.WithContext(errors.New("rejected"), "verify session"),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			agent := &TerminalAgent{
				verifier:        &test.verifier,
				clock:           clockwork.NewFakeClockAt(now),
				sessionLifetime: lifetime,
				in:              strings.NewReader(test.input),
				out:             &out,
			}

			bundle, err := agent.Login(context.Background())
			assert.Equal(t, test.expError, err)
			assert.Equal(t, test.expBundle, bundle)
			assert.Equal(t, test.expToken, test.verifier.gotToken)
			assert.Contains(t, out.String(), "https://latex.example.com/login")
		})
	}
}

// fakeTerminal stands in for a TTY whose reads block until released.
type fakeTerminal struct {
	state    *term.State
	secret   chan string
	restored []*term.State
}

func newTerminalAgent(t *testing.T, terminal *fakeTerminal, verifier Verifier) *TerminalAgent {
	in, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		in.Close()
		w.Close()
	})

	return &TerminalAgent{
		verifier:        verifier,
		clock:           clockwork.NewFakeClock(),
		sessionLifetime: time.Hour,
		in:              in,
		out:             &bytes.Buffer{},
		isTerminal:      func(int) bool { return true },
		getState:        func(int) (*term.State, error) { return terminal.state, nil },
		restore: func(_ int, state *term.State) error {
			terminal.restored = append(terminal.restored, state)
			return nil
		},
		readPassword: func(int) ([]byte, error) {
			return []byte(<-terminal.secret), nil
		},
	}
}

func TestTerminalAgentCancelledRestoresTerminal(t *testing.T) {
	terminal := &fakeTerminal{state: &term.State{}, secret: make(chan string)}
	agent := newTerminalAgent(t, terminal, &fakeVerifier{})
	t.Cleanup(func() { close(terminal.secret) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agent.Login(ctx)
	assert.Equal(t, errors.WithContext(context.Canceled, "read session cookie"), err)
	assert.Equal(t, []*term.State{terminal.state}, terminal.restored)
}

func TestTerminalAgentHiddenInput(t *testing.T) {
	terminal := &fakeTerminal{state: &term.State{}, secret: make(chan string, 1)}
	terminal.secret <- "pasted"
	verifier := &fakeVerifier{info: remote.AccountInfo{Account: "ada@example.com", CSRFToken: "csrf"}}
	agent := newTerminalAgent(t, terminal, verifier)

	bundle, err := agent.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pasted", bundle.SessionToken)
	assert.Equal(t, "pasted", verifier.gotToken)
	assert.Empty(t, terminal.restored)
}

func TestParseCookieInput(t *testing.T) {
	assert.Equal(t, "abc", parseCookieInput("abc"))
	assert.Equal(t, "abc", parseCookieInput(" abc \r\n"))
	assert.Equal(t, "abc", parseCookieInput("overleaf_session2=abc"))
	assert.Equal(t, "abc", parseCookieInput("overleaf_session2=abc; Secure"))
	assert.Equal(t, "", parseCookieInput("   "))
}
