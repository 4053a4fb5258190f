package login

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sidkik/docsync/pkg/errors"
	"github.com/sidkik/docsync/pkg/login/mocks"
	"github.com/sidkik/docsync/pkg/session"
)

var testBundle = session.Bundle{
	SessionToken: "token",
	CSRFToken:    "csrf",
	Account:      "ada@example.com",
	ExpiresAt:    1709294400,
}

func blockUntilCancelled(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestWithTimeoutSuccess(t *testing.T) {
	agent := &mocks.Agent{}
	agent.On("Login", mock.Anything).Return(testBundle, nil)

	bundle, err := WithTimeout(context.Background(), agent, clockwork.NewFakeClock(), time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, testBundle, bundle)
	agent.AssertExpectations(t)
}

func TestWithTimeoutAgentError(t *testing.T) {
	agentErr := errors.New("browser closed")
	agent := &mocks.Agent{}
	agent.On("Login", mock.Anything).Return(session.Bundle{}, agentErr)

	_, err := WithTimeout(context.Background(), agent, clockwork.NewFakeClock(), time.Hour)
	assert.Equal(t, errors.AuthError{Err: agentErr}, err)
}

func TestWithTimeoutExpires(t *testing.T) {
	agent := &mocks.Agent{}
	agent.On("Login", mock.Anything).Return(session.Bundle{}, blockUntilCancelled)

	clock := clockwork.NewFakeClock()
	errChan := make(chan error, 1)
	go func() {
		_, err := WithTimeout(context.Background(), agent, clock, time.Hour)
		errChan <- err
	}()

	clock.BlockUntil(1)
	clock.Advance(time.Hour)

	err := <-errChan
	assert.Equal(t, errors.AuthError{Err: errors.ErrLoginTimeout}, err)
	assert.True(t, errors.Is(err, errors.ErrLoginTimeout))
}

func TestWithTimeoutCancelled(t *testing.T) {
	agent := &mocks.Agent{}
	agent.On("Login", mock.Anything).Return(session.Bundle{}, blockUntilCancelled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithTimeout(ctx, agent, clockwork.NewFakeClock(), time.Hour)
	assert.Equal(t, errors.AuthError{Err: context.Canceled}, err)
}

func TestWithTimeoutWaitsForCancelledAgent(t *testing.T) {
	cleanedUp := make(chan struct{})
	agent := &mocks.Agent{}
	agent.On("Login", mock.Anything).Return(session.Bundle{}, func(ctx context.Context) error {
		<-ctx.Done()
		close(cleanedUp)
		return ctx.Err()
	})

	clock := clockwork.NewFakeClock()
	errChan := make(chan error, 1)
	go func() {
		_, err := WithTimeout(context.Background(), agent, clock, time.Hour)
		errChan <- err
	}()

	clock.BlockUntil(1)
	clock.Advance(time.Hour)

	err := <-errChan
	assert.Equal(t, errors.AuthError{Err: errors.ErrLoginTimeout}, err)
	select {
	case <-cleanedUp:
	default:
		t.Fatal("WithTimeout returned before the agent stopped")
	}
}
