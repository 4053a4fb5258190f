package session

import (
	"encoding/json"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/docsync/pkg/errors"
)

// Bundle is the set of credentials needed to act as the logged in user.
type Bundle struct {
	// SessionToken is the value of the session cookie.
	SessionToken string `json:"session_token"`

	// SecondaryToken is the load balancer affinity cookie. It's optional.
	SecondaryToken string `json:"secondary_token,omitempty"`

	// CSRFToken must accompany every request that changes remote state.
	CSRFToken string `json:"csrf_token"`

	// Account is the email of the logged in user. It's informational only.
	Account string `json:"account"`

	// ExpiresAt is when the session expires, in seconds since the epoch.
	ExpiresAt int64 `json:"expires_at"`
}

// Valid returns whether the bundle can still be used at `now`.
func (b Bundle) Valid(now time.Time) bool {
	return now.Unix() < b.ExpiresAt
}

// Expiry returns ExpiresAt as a time.
func (b Bundle) Expiry() time.Time {
	return time.Unix(b.ExpiresAt, 0)
}

// Store caches a Bundle in a single file so that the user doesn't have to
// log in on every invocation.
type Store struct {
	fs    afero.Fs
	path  string
	clock clockwork.Clock
}

// NewStore returns a Store that keeps the session at `path`.
func NewStore(fs afero.Fs, path string, clock clockwork.Clock) Store {
	return Store{fs: fs, path: path, clock: clock}
}

// Path returns the location of the session cache.
func (s Store) Path() string {
	return s.path
}

// Load returns the cached session. A missing, unreadable, malformed or
// expired cache is reported as a miss.
func (s Store) Load() (Bundle, bool) {
	logger := log.WithField("path", s.path)

	contents, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WithError(err).Debug("Failed to read session cache")
		}
		return Bundle{}, false
	}

	var bundle Bundle
	if err := json.Unmarshal(contents, &bundle); err != nil {
		logger.WithError(err).Debug("Ignoring malformed session cache")
		return Bundle{}, false
	}

	if bundle.SessionToken == "" {
		logger.Debug("Ignoring session cache without a session token")
		return Bundle{}, false
	}

	if !bundle.Valid(s.clock.Now()) {
		logger.WithField("expiredAt", bundle.Expiry()).Debug("Ignoring expired session cache")
		return Bundle{}, false
	}
	return bundle, true
}

// Save writes the bundle to disk, replacing any previous cache.
func (s Store) Save(bundle Bundle) error {
	contents, err := json.Marshal(bundle)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	// The cache holds credentials, so only the user may read it.
	if err := afero.WriteFile(s.fs, s.path, contents, 0600); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// Clear removes the cached session. It returns NotLoggedIn if there is
// nothing to remove.
func (s Store) Clear() error {
	if _, err := s.fs.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return errors.NotLoggedIn{}
		}
		return errors.WithContext(err, "stat")
	}

	if err := s.fs.Remove(s.path); err != nil {
		return errors.WithContext(err, "remove")
	}
	return nil
}
