package config

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/docsync/cmd/util"
	"github.com/sidkik/docsync/pkg/config"
	"github.com/sidkik/docsync/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	stdin           io.Reader = os.Stdin
	parseUserConfig           = config.ParseUser
	writeUserConfig           = config.WriteUser
	getConfigPath             = config.GetUserConfigPath
)

// options are the config values set on the command line. Empty values are
// prompted for.
type options struct {
	baseURL       string
	loginTimeout  string
	sessionFile   string
	disableBackup *bool
}

// New creates a new `config` command.
func New() *cobra.Command {
	var opts options
	var disableBackup bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the docsync user configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("disable-backup") {
				opts.disableBackup = &disableBackup
			}

			if err := setupConfig(opts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "",
		"Set the address of the remote service. "+
			"Optional: If not set, `docsync config` will interactively prompt.")
	cmd.Flags().StringVar(&opts.loginTimeout, "login-timeout", "",
		"Set how long to wait for the user to log in, such as `30m`. "+
			"Optional: If not set, `docsync config` will interactively prompt.")
	cmd.Flags().StringVar(&opts.sessionFile, "session-file", "",
		"Set where the session is cached. "+
			"Optional: If not set, `docsync config` will interactively prompt.")
	cmd.Flags().BoolVar(&disableBackup, "disable-backup", false,
		"Don't back up the local project before pulling.")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration, including defaults",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if err := showConfig(); err != nil {
				util.HandleFatalError(errors.WithContext(err, "show config"))
			}
		},
	})

	// Setup the commands for querying the contents of the user config.
	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-base-url",
			short: "Get the address of the remote service",
			fn:    func(cfg config.User) string { return cfg.BaseURL },
		},
		{
			use:   "get-session-file",
			short: "Get the path of the session cache",
			fn:    func(cfg config.User) string { return cfg.SessionFile },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Args:  cobra.NoArgs,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// setupConfig prompts for any config values that weren't set in `opts`, and
// writes the result.
func setupConfig(opts options) error {
	cfg, err := generateConfig(opts)
	if err != nil {
		return errors.WithContext(err, "generate config")
	}

	if err := writeUserConfig(cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := getConfigPath()
	if err != nil {
		return errors.WithContext(err, "get user config path")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}

func showConfig() error {
	cfg, err := parseUserConfig()
	if err != nil {
		return errors.WithContext(err, "read config")
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	_, err = stdout.Write(out)
	return err
}

func baseURLValidationFn(raw string) (string, bool) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" ||
		(parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "The address must be a full URL, such as https://www.overleaf.com.", false
	}
	return "", true
}

func durationValidationFn(raw string) (string, bool) {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return "The timeout must be a positive duration, such as `1h` or `30m`.", false
	}
	return "", true
}

type prompt struct {
	helpString, prompt, defaultAnswer, currAnswer string
	field                                         *string
	validationFn                                  func(string) (string, bool)
}

// generateConfig interacts with the user to decide what the user's desired
// configuration is. The current config's values are offered as alternatives
// to the defaults.
func generateConfig(opts options) (config.User, error) {
	defaults := config.DefaultUser()
	currConfig, err := parseUserConfig()
	if err != nil {
		currConfig = config.User{}
		log.WithError(err).Debug("Failed to read current config")
	}

	baseURL, loginTimeout, sessionFile := opts.baseURL, opts.loginTimeout, opts.sessionFile
	var prompts []prompt
	if baseURL == "" {
		prompts = append(prompts, prompt{
			helpString:    "Enter the address of the remote editing service.",
			prompt:        "Base URL",
			defaultAnswer: defaults.BaseURL,
			currAnswer:    currConfig.BaseURL,
			field:         &baseURL,
			validationFn:  baseURLValidationFn,
		})
	} else if msg, ok := baseURLValidationFn(baseURL); !ok {
		return config.User{}, errors.New(msg)
	}

	if loginTimeout == "" {
		var currAnswer string
		if currConfig.LoginTimeout.Duration > 0 {
			currAnswer = currConfig.LoginTimeout.String()
		}
		prompts = append(prompts, prompt{
			helpString: "Enter how long to wait for you to finish logging in.\n" +
				"Commands that need to log in fail after this long.",
			prompt:        "Login timeout",
			defaultAnswer: defaults.LoginTimeout.String(),
			currAnswer:    currAnswer,
			field:         &loginTimeout,
			validationFn:  durationValidationFn,
		})
	} else if msg, ok := durationValidationFn(loginTimeout); !ok {
		return config.User{}, errors.New(msg)
	}

	if sessionFile == "" {
		prompts = append(prompts, prompt{
			helpString:    "Enter where to cache the login session.",
			prompt:        "Session file",
			defaultAnswer: defaults.SessionFile,
			currAnswer:    currConfig.SessionFile,
			field:         &sessionFile,
		})
	}

	stdinReader := bufio.NewReader(stdin)
	for _, prompt := range prompts {
		var resp string
		for {
			resp, err = promptUser(stdinReader, prompt.helpString, prompt.prompt,
				prompt.defaultAnswer, prompt.currAnswer)
			if err != nil {
				return config.User{}, errors.WithContext(err, "read response")
			}

			if prompt.validationFn == nil {
				break
			}

			validationErr, ok := prompt.validationFn(resp)
			if ok {
				break
			}

			fmt.Fprintln(stdout, validationErr)
		}

		*prompt.field = resp
	}

	// The value was validated above.
	timeout, _ := time.ParseDuration(loginTimeout)
	cfg := config.User{
		Version:         config.InitialUserConfigVersion,
		BaseURL:         baseURL,
		LoginTimeout:    config.Duration{Duration: timeout},
		SessionLifetime: currConfig.SessionLifetime,
		SessionFile:     sessionFile,
		DisableBackup:   currConfig.DisableBackup,
	}
	if opts.disableBackup != nil {
		cfg.DisableBackup = *opts.disableBackup
	}
	return cfg, nil
}

func promptUser(stdinReader *bufio.Reader, helpString, prompt, defaultAnswer,
	currAnswer string) (string, error) {
	// Display a new line at the end to separate different fields to make it
	// look clearer.
	defer fmt.Fprintln(stdout)

	options := []string{}
	if defaultAnswer != "" {
		options = append(options, defaultAnswer)
	}
	if currAnswer != "" && currAnswer != defaultAnswer {
		options = append(options, currAnswer)
	}
	options = append(options, "(Enter manually)")

	fmt.Fprintln(stdout, helpString+"\n"+prompt+":")

	if nOptions := len(options); nOptions > 1 {
		// defaultAnswer or currAnswer exists.
		fmt.Fprintln(stdout)
		for i, option := range options {
			if i == 0 {
				option = fmt.Sprintf("%s (recommended)", option)
			}
			fmt.Fprintf(stdout, "\t%d. %s\n", i+1, option)
		}
		fmt.Fprintln(stdout)

		for {
			fmt.Fprintf(stdout, "Please choose one [1-%d]: ", nOptions)
			choiceStr, err := stdinReader.ReadString('\n')
			if err != nil {
				return "", err
			}

			var choice int
			choiceStr = strings.TrimSpace(choiceStr)

			// Default to the first choice if user doesn't enter anything.
			if choiceStr == "" {
				choice = 1
			} else {
				choice, err = strconv.Atoi(choiceStr)
				if err != nil || choice < 1 || choice > nOptions {
					// Try again if the input is invalid.
					continue
				}
			}

			if choice == nOptions {
				// Enter manually.
				break
			}

			return options[choice-1], nil
		}
	}

	fmt.Fprint(stdout, "Please enter manually: ")
	resp, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp), nil
}
