package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/aidash/internal/auth"
	"github.com/rileyhilliard/aidash/internal/config"
	"github.com/rileyhilliard/aidash/internal/errors"
	"github.com/rileyhilliard/aidash/internal/ui"
)

// Environment variables read by 'aidash login' when not prompting.
const (
	envUsername = "AIDASH_USERNAME"
	envPassword = "AIDASH_PASSWORD"
	envSession  = "AIDASH_SESSION"
)

var loginUsername string

// loginCmd signs in and stores the session
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the dashboard backend",
	Long: `Sign in with your dashboard username and password.

The session cookie is stored in your system keyring (macOS Keychain,
Windows Credential Manager or Linux Secret Service), or in
~/.config/aidash/sessions when no keyring is available. Sessions are
stored per backend URL.

For scripts, set AIDASH_USERNAME and AIDASH_PASSWORD, or skip login
entirely and export AIDASH_SESSION.

Examples:
  aidash login
  aidash login --username admin
  AIDASH_PASSWORD=... aidash login --username admin`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		creds, err := promptCredentials(loginUsername)
		if err != nil {
			return err
		}
		return loginCommand(cmd.Context(), cmd.OutOrStdout(), cfg, creds)
	},
}

// logoutCmd forgets the stored session
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return logoutCommand(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username (default: $AIDASH_USERNAME or prompt)")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

// credentials is what loginCommand signs in with.
type credentials struct {
	Username string
	Password string
}

// promptCredentials fills in whatever the flags and environment leave
// out. It uses a huh form on a terminal, a hidden password prompt when
// only stdin is a terminal, and fails otherwise.
func promptCredentials(username string) (credentials, error) {
	creds := credentials{
		Username: strings.TrimSpace(username),
		Password: os.Getenv(envPassword),
	}
	if creds.Username == "" {
		creds.Username = strings.TrimSpace(os.Getenv(envUsername))
	}
	if creds.Username != "" && creds.Password != "" {
		return creds, nil
	}

	stdinTTY := term.IsTerminal(int(os.Stdin.Fd()))
	switch {
	case stdinTTY && ui.IsTerminal(os.Stdout):
		return runLoginForm(creds)
	case stdinTTY && creds.Username != "":
		fmt.Fprint(os.Stderr, "Password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return creds, errors.WrapWithCode(err, errors.ErrAuth,
				"Failed to read password",
				"Set "+envPassword+" instead")
		}
		creds.Password = string(pw)
		return creds, nil
	default:
		return creds, errors.New(errors.ErrAuth,
			"Can't prompt for credentials without a terminal",
			"Pass --username and set "+envPassword+", or export "+envSession)
	}
}

func runLoginForm(creds credentials) (credentials, error) {
	required := func(field string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", field)
			}
			return nil
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&creds.Username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&creds.Password).
				Validate(required("password")),
		),
	)
	if err := form.Run(); err != nil {
		return creds, errors.WrapWithCode(err, errors.ErrAuth,
			"Failed to get user input",
			"Pass --username and set "+envPassword+" to log in without prompts")
	}
	creds.Username = strings.TrimSpace(creds.Username)
	return creds, nil
}

// loginCommand signs in against cfg's backend and stores the session.
func loginCommand(ctx context.Context, w io.Writer, cfg *config.Config, creds credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return errors.New(errors.ErrAuth,
			"Username and password are required",
			"Pass --username and set "+envPassword)
	}

	client, _, err := newClient(cfg)
	if err != nil {
		return err
	}

	reqCtx, cancel := requestContext(ctx, cfg)
	defer cancel()

	spinner := ui.NewSpinner("Signing in to " + cfg.API.URL)
	spinner.Start()
	resp, err := client.Login(reqCtx, creds.Username, creds.Password)
	if err != nil {
		spinner.Fail()
		return requestError(err, "Sign in failed")
	}

	session := client.Session()
	if session == "" {
		spinner.Fail()
		return errors.New(errors.ErrAuth,
			"The backend accepted the login but returned no session",
			"Check that "+cfg.API.URL+" is the dashboard backend")
	}
	spinner.Success()

	source, err := auth.StoreSession(cfg.API.URL, session)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrAuth,
			"Signed in, but couldn't store the session",
			"Check keyring access, or that ~/.config/aidash is writable")
	}

	name := resp.User.Username
	if name == "" {
		name = creds.Username
	}
	fmt.Fprintf(w, "%s Signed in as %s (session stored in %s)\n",
		ui.SuccessStyle().Render(ui.SymbolSuccess), name, source)

	if os.Getenv(envSession) != "" {
		fmt.Fprintln(w, ui.WarningStyle().Render(ui.SymbolWarning+" "+envSession+" is set and takes precedence over the stored session"))
	}
	return nil
}

// logoutCommand deletes the stored session for cfg's backend.
func logoutCommand(w io.Writer, cfg *config.Config) error {
	if err := auth.DeleteSession(cfg.API.URL); err != nil {
		if strings.Contains(err.Error(), "no stored session") {
			fmt.Fprintln(w, ui.MutedStyle().Render("No stored session for "+cfg.API.URL))
			return nil
		}
		return errors.WrapWithCode(err, errors.ErrAuth,
			"Couldn't remove the stored session",
			"Check your keyring, or delete ~/.config/aidash/sessions manually")
	}

	fmt.Fprintf(w, "%s Logged out of %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), cfg.API.URL)
	if os.Getenv(envSession) != "" {
		fmt.Fprintln(w, ui.WarningStyle().Render(ui.SymbolWarning+" "+envSession+" is still set"))
	}
	return nil
}
