package config

import (
	"encoding/json"
	"time"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/sidkik/docsync/pkg/errors"
)

const (
	// UserConfigPath is the default path to the docsync user config.
	UserConfigPath = "~/.docsync.yaml"

	// DefaultSessionFile is where the session cache is kept unless the user
	// config says otherwise.
	DefaultSessionFile = "~/.docsync-session.json"

	// DefaultBaseURL is the address of the hosted editor.
	DefaultBaseURL = "https://www.overleaf.com"

	// DefaultLoginTimeout bounds how long we wait for the user to finish
	// logging in.
	DefaultLoginTimeout = time.Hour

	// DefaultSessionLifetime is used when the service doesn't tell us when
	// the session cookie expires.
	DefaultSessionLifetime = 5 * 24 * time.Hour

	// InitialUserConfigVersion is the first version of the user config.
	// Config files that do not specify a version default to this version.
	InitialUserConfigVersion = "1.0"

	// SupportedUserConfigVersions is the range of user config versions that
	// this binary understands.
	SupportedUserConfigVersions = ">= 1.0, < 2.0"
)

// Duration is a time.Duration that's written as a string such as "1h30m" in
// the config file.
type Duration struct {
	time.Duration
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.WithContext(err, "duration must be a string")
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// User contains the user's preferences for talking to the remote service.
type User struct {
	Version string `json:"version,omitempty"`

	// BaseURL is the address of the remote service.
	BaseURL string `json:"baseURL,omitempty"`

	// LoginTimeout is how long `login` waits for the user.
	LoginTimeout Duration `json:"loginTimeout,omitempty"`

	// SessionLifetime is assumed for sessions whose expiry the service
	// doesn't report.
	SessionLifetime Duration `json:"sessionLifetime,omitempty"`

	// DisableBackup turns off the backup that `pull` takes before
	// overwriting the local project.
	DisableBackup bool `json:"disableBackup,omitempty"`

	// SessionFile is where the session cache is stored.
	SessionFile string `json:"sessionFile,omitempty"`
}

func (u User) getVersion() string {
	return u.Version
}

// DefaultUser returns the config used when the user hasn't written one.
func DefaultUser() User {
	return User{
		Version:         InitialUserConfigVersion,
		BaseURL:         DefaultBaseURL,
		LoginTimeout:    Duration{DefaultLoginTimeout},
		SessionLifetime: Duration{DefaultSessionLifetime},
		SessionFile:     DefaultSessionFile,
	}
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParseUser attempts to parse the User stored in the default path. A missing
// config file isn't an error; the defaults are used instead.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config := User{Version: InitialUserConfigVersion}
	if err := parseConfig(path, &config, SupportedUserConfigVersions); err != nil {
		if _, ok := err.(errors.FileNotFound); !ok {
			return User{}, errors.WithContext(err, "parse")
		}
		config = DefaultUser()
	}

	config.applyDefaults()
	config.SessionFile, err = homedirExpand(config.SessionFile)
	if err != nil {
		return User{}, errors.WithContext(err, "expand session file path")
	}
	return config, nil
}

func (u *User) applyDefaults() {
	defaults := DefaultUser()
	if u.BaseURL == "" {
		u.BaseURL = defaults.BaseURL
	}
	if u.LoginTimeout.Duration <= 0 {
		u.LoginTimeout = defaults.LoginTimeout
	}
	if u.SessionLifetime.Duration <= 0 {
		u.SessionLifetime = defaults.SessionLifetime
	}
	if u.SessionFile == "" {
		u.SessionFile = defaults.SessionFile
	}
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	if cfg.Version == "" {
		cfg.Version = InitialUserConfigVersion
	}
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// GetUserConfigPath returns the path to the user's global docsync
// configuration. This path is expanded, so it can be directly passed to file
// operations.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
