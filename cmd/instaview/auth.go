package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"instaview/pkg/session"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Sign in and store the session securely",
	Long: `Sign in with email and password against the configured auth provider.

The resulting session is stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)`,
	Example: `  # Interactive login
  instaview login

  # Login with email
  instaview login me@example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the session and remove it from storage",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the currently signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	client := session.NewClient(&cfg.Auth, log)
	if !client.Initialized() {
		return fmt.Errorf("auth provider not configured: set auth.url and auth.anon_key")
	}

	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Email: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(input)
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	fmt.Print("Password: ")
	password, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	sess, err := client.SignIn(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	manager, err := session.NewStoreManager()
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	if err := manager.Save(&session.StoredSession{
		Email:        email,
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
	}); err != nil {
		return fmt.Errorf("signed in, but failed to store session: %w", err)
	}

	fmt.Printf("Signed in as %s\n", email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := session.NewStoreManager()
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	client := session.NewClient(&cfg.Auth, log)
	if stored, err := manager.Load(); err == nil {
		client.SetSession(&session.Session{
			AccessToken:  stored.AccessToken,
			RefreshToken: stored.RefreshToken,
		})
		if err := client.SignOut(cmd.Context()); err != nil && err != session.ErrNotInitialized {
			log.WithError(err).Warn("failed to revoke session upstream")
		}
	}

	if err := manager.Clear(); err != nil {
		return fmt.Errorf("failed to clear stored session: %w", err)
	}
	fmt.Println("Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	client := session.NewClient(&cfg.Auth, log)
	if !client.Initialized() {
		return fmt.Errorf("auth provider not configured: set auth.url and auth.anon_key")
	}

	manager, err := session.NewStoreManager()
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	stored, err := manager.Load()
	if err != nil {
		return fmt.Errorf("not signed in")
	}
	client.SetSession(&session.Session{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
	})

	user, err := client.CurrentUser(cmd.Context())
	if err != nil {
		return fmt.Errorf("stored session is no longer valid: %w", err)
	}

	fmt.Printf("%s (%s)\n", user.Email, user.ID)
	return nil
}

// readPassword reads a password from the terminal without echo.
func readPassword() (string, error) {
	data, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
