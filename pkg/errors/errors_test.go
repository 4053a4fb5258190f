package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	assert.NoError(t, WithContext(nil, "ignored"))

	root := New("disk full")
	err := WithContext(WithContext(root, "write"), "save session")
	assert.EqualError(t, err, "save session: write: disk full")
	assert.Equal(t, root, RootCause(err))
	assert.True(t, Is(err, root))
}

func TestNew(t *testing.T) {
	assert.EqualError(t, New("literal"), "literal")
	assert.EqualError(t, New("status %d", 500), "status 500")
}

func TestGetFriendlyMessage(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expMessage string
		expOK      bool
	}{
		{
			name:  "Plain",
			err:   New("plain"),
			expOK: false,
		},
		{
			name:       "Friendly",
			err:        NewFriendlyError("Do %s.", "this"),
			expMessage: "Do this.",
			expOK:      true,
		},
		{
			name:       "WrappedFriendly",
			err:        WithContext(NotLoggedIn{}, "logout"),
			expMessage: "Already logged out.",
			expOK:      true,
		},
		{
			name:       "LoginTimeout",
			err:        WithContext(AuthError{ErrLoginTimeout}, "get session"),
			expMessage: "Timed out waiting for login. Run `docsync login` to try again.",
			expOK:      true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			msg, ok := GetFriendlyMessage(test.err)
			assert.Equal(t, test.expOK, ok)
			assert.Equal(t, test.expMessage, msg)
		})
	}
}

func TestAsThroughContext(t *testing.T) {
	err := WithContext(fmt.Errorf("wrapped: %w", UploadError{
		File: "main.tex", StatusCode: 422, Body: "bad"}), "push")

	var uploadErr UploadError
	assert.True(t, As(err, &uploadErr))
	assert.Equal(t, "main.tex", uploadErr.File)
	assert.EqualError(t, err, "push: wrapped: upload main.tex: server responded with 422 (bad)")
}

func TestProjectNotFoundMessage(t *testing.T) {
	assert.EqualError(t, ProjectNotFound{Name: "Thesis"}, `no project named "Thesis"`)
	assert.EqualError(t, ProjectNotFound{ID: "abc"}, `no project with id "abc"`)
}

func TestPullIncomplete(t *testing.T) {
	cause := NetworkError{Op: "download project", Err: New("connection reset")}
	err := WithContext(PullIncomplete{BackupDir: "/p/.docsync/P-1.local.bak", Err: cause}, "pull")

	assert.EqualError(t, err, "pull: pull failed after removing local files "+
		"(backup at /p/.docsync/P-1.local.bak): download project: connection reset")

	msg, ok := GetFriendlyMessage(err)
	assert.True(t, ok)
	assert.Contains(t, msg, "/p/.docsync/P-1.local.bak")
	assert.Contains(t, msg, "connection reset")

	var netErr NetworkError
	assert.True(t, As(err, &netErr))

	msg, ok = GetFriendlyMessage(PullIncomplete{Err: cause})
	assert.True(t, ok)
	assert.Contains(t, msg, "No backup was taken")
}
