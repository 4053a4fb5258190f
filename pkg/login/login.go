// Package login obtains new sessions from the remote service. Logging in
// requires the user, so it's the only operation allowed to block for a long
// time.
package login

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/docsync/pkg/errors"
	"github.com/sidkik/docsync/pkg/session"
)

// agentStopTimeout is how long a cancelled agent is waited on.
const agentStopTimeout = 5 * time.Second

// Agent interactively logs the user in.
type Agent interface {
	Login(ctx context.Context) (session.Bundle, error)
}

type result struct {
	bundle session.Bundle
	err    error
}

// WithTimeout runs the agent, and gives up if it hasn't finished after
// `timeout`. All failures are returned as errors.AuthError.
func WithTimeout(ctx context.Context, agent Agent, clock clockwork.Clock,
	timeout time.Duration) (session.Bundle, error) {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so that an agent that finishes after the timeout doesn't leak
	// the goroutine.
	done := make(chan result, 1)
	go func() {
		bundle, err := agent.Login(ctx)
		done <- result{bundle, err}
	}()

	var err error
	select {
	case res := <-done:
		if res.err != nil {
			return session.Bundle{}, errors.AuthError{Err: res.err}
		}
		return res.bundle, nil
	case <-clock.After(timeout):
		err = errors.ErrLoginTimeout
	case <-ctx.Done():
		err = ctx.Err()
	}

	// Give the agent a chance to clean up, such as restoring the terminal,
	// before the caller exits.
	cancel()
	select {
	case <-done:
	case <-time.After(agentStopTimeout):
		log.Warn("Login agent didn't stop after being cancelled")
	}
	return session.Bundle{}, errors.AuthError{Err: err}
}
