package errors

import (
	"fmt"
)

// ErrLoginTimeout is returned when the user doesn't finish logging in before
// the login deadline.
var ErrLoginTimeout = New("login timed out")

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// AuthError represents a failure to obtain a usable session. It is never
// retried automatically.
type AuthError struct {
	Err error
}

func (err AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", err.Err)
}

func (err AuthError) Unwrap() error {
	return err.Err
}

func (err AuthError) FriendlyMessage() string {
	if Is(err.Err, ErrLoginTimeout) {
		return "Timed out waiting for login. Run `docsync login` to try again."
	}
	return fmt.Sprintf("Failed to log in:\n%s\n\n"+
		"Run `docsync login` to try again.", err.Err)
}

// NotLoggedIn is returned when removing a session that doesn't exist.
type NotLoggedIn struct{}

func (err NotLoggedIn) Error() string {
	return "not logged in"
}

func (err NotLoggedIn) FriendlyMessage() string {
	return "Already logged out."
}

// NotARepository is returned when an operation requires a cloned project but
// no marker directory was found above Dir.
type NotARepository struct {
	Dir string
}

func (err NotARepository) Error() string {
	return fmt.Sprintf("%s is not inside a docsync repository", err.Dir)
}

func (err NotARepository) FriendlyMessage() string {
	return fmt.Sprintf("%s is not inside a docsync repository.\n"+
		"Clone a project with `docsync clone` first.", err.Dir)
}

// AlreadyInitialized is returned when cloning inside an existing repository.
type AlreadyInitialized struct {
	MarkerDir string
}

func (err AlreadyInitialized) Error() string {
	return fmt.Sprintf("already a docsync repository (%s)", err.MarkerDir)
}

func (err AlreadyInitialized) FriendlyMessage() string {
	return fmt.Sprintf("A project has already been cloned here (%s).\n"+
		"Remove that directory, or clone from somewhere else.", err.MarkerDir)
}

// TargetExists is returned when the directory a project would be cloned into
// already exists.
type TargetExists struct {
	Path string
}

func (err TargetExists) Error() string {
	return fmt.Sprintf("%s already exists", err.Path)
}

func (err TargetExists) FriendlyMessage() string {
	return fmt.Sprintf("Directory %s already exists.\n"+
		"Remove it, or clone from a different directory.", err.Path)
}

// CorruptState is returned when the repository metadata can't be read.
type CorruptState struct {
	Path string
	Err  error
}

func (err CorruptState) Error() string {
	return fmt.Sprintf("corrupt repository metadata %s: %s", err.Path, err.Err)
}

func (err CorruptState) Unwrap() error {
	return err.Err
}

func (err CorruptState) FriendlyMessage() string {
	return fmt.Sprintf("The repository metadata at %s could not be read:\n%s\n\n"+
		"The project must be cloned again.", err.Path, err.Err)
}

// ProjectNotFound is returned when no remote project matches a lookup.
type ProjectNotFound struct {
	Name string
	ID   string
}

func (err ProjectNotFound) Error() string {
	if err.ID != "" {
		return fmt.Sprintf("no project with id %q", err.ID)
	}
	return fmt.Sprintf("no project named %q", err.Name)
}

func (err ProjectNotFound) FriendlyMessage() string {
	if err.ID != "" {
		return fmt.Sprintf("There is no project with id %q in your account.", err.ID)
	}
	return fmt.Sprintf("There is no project named %q in your account.", err.Name)
}

// NetworkError represents a transport-level failure talking to the remote
// service.
type NetworkError struct {
	Op  string
	Err error
}

func (err NetworkError) Error() string {
	return fmt.Sprintf("%s: %s", err.Op, err.Err)
}

func (err NetworkError) Unwrap() error {
	return err.Err
}

// RemoteProtocolError represents a response from the remote service that
// wasn't what we expected, either because of its status or its contents.
type RemoteProtocolError struct {
	Op         string
	StatusCode int
	Body       string
	Reason     string
}

func (err RemoteProtocolError) Error() string {
	if err.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", err.Op, err.Reason)
	}
	return fmt.Sprintf("%s: server responded with %d (%s)", err.Op, err.StatusCode, err.Body)
}

// UploadError is returned when the remote service rejects an uploaded file.
type UploadError struct {
	File       string
	StatusCode int
	Body       string
}

func (err UploadError) Error() string {
	return fmt.Sprintf("upload %s: server responded with %d (%s)", err.File, err.StatusCode, err.Body)
}

// PullIncomplete is returned when a pull fails after it started removing the
// local project. BackupDir is empty if no backup was taken.
type PullIncomplete struct {
	BackupDir string
	Err       error
}

func (err PullIncomplete) Error() string {
	if err.BackupDir == "" {
		return fmt.Sprintf("pull failed after removing local files (no backup): %s", err.Err)
	}
	return fmt.Sprintf("pull failed after removing local files (backup at %s): %s",
		err.BackupDir, err.Err)
}

func (err PullIncomplete) Unwrap() error {
	return err.Err
}

func (err PullIncomplete) FriendlyMessage() string {
	msg := fmt.Sprintf("The pull failed after local files were removed:\n%s\n\n", err.Err)
	if err.BackupDir == "" {
		return msg + "No backup was taken. Run `docsync pull` again to fetch the project."
	}
	return msg + fmt.Sprintf("The previous contents are backed up in %s.\n"+
		"Run `docsync pull` again, or restore the backup by hand.", err.BackupDir)
}
