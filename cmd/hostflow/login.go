package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hostflow/hostflow/internal/keys"
	"github.com/hostflow/hostflow/internal/remote"
	"github.com/hostflow/hostflow/internal/state"
	"github.com/hostflow/hostflow/internal/ui"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:     "login",
	GroupID: "account",
	Short:   "Sign in or create an account",
	Long: `Sign in to your HostFlow account, or create one.

The email is checked against the cloud discovery registry first: a known
address goes straight to password entry, an unknown one starts the signup
flow. After sign-in the account's cloud snapshot becomes the local
working set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if u := app.Store.CurrentUser(); u != nil {
			fmt.Printf("%s Already signed in as %s (%s)\n", ui.RenderPass("✓"), u.Name, u.Email)
			fmt.Println("  Run 'hostflow logout' first to switch accounts")
			return nil
		}

		email := keys.NormalizeEmail(loginEmail)
		if email == "" {
			if err := promptEmail(&email); err != nil {
				return err
			}
			email = keys.NormalizeEmail(email)
		}
		if email == "" || !strings.Contains(email, "@") {
			return fmt.Errorf("a valid email address is required")
		}

		if app.Session.EmailExists(ctx, email) {
			return runLogin(ctx, app, email)
		}
		return runSignup(ctx, app, email)
	},
}

// promptEmail asks for the account email interactively.
func promptEmail(email *string) error {
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Description("Your HostFlow account email").
			Value(email),
	))
	return form.Run()
}

// readPassword obtains the password from the flag, an interactive prompt,
// or — when stdin is not a terminal — a plain line read, in that order.
func readPassword(title string) (string, error) {
	if loginPassword != "" {
		return loginPassword, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		// Piped input (scripts, tests): read one line without echo concerns
		var pw string
		if _, err := fmt.Scanln(&pw); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return pw, nil
	}

	var pw string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			EchoMode(huh.EchoModePassword).
			Value(&pw),
	))
	if err := form.Run(); err != nil {
		return "", err
	}
	return pw, nil
}

// runLogin authenticates a known account and installs its cloud snapshot.
func runLogin(ctx context.Context, app *App, email string) error {
	fmt.Printf("%s Account found for %s\n", ui.RenderAccent("→"), email)

	password, err := readPassword("Password")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	user, snap, err := app.Session.Authenticate(ctx, email, password)
	if errors.Is(err, remote.ErrNotFound) {
		return fmt.Errorf("wrong password for %s", email)
	}
	if err != nil {
		return fmt.Errorf("could not reach the cloud store: %w", err)
	}

	if err := app.Session.Login(user, email, password, snap); err != nil {
		return err
	}

	fmt.Printf("%s Signed in as %s\n", ui.RenderPass("✓"), user.Name)
	if snap.LastActiveDevice != "" {
		fmt.Printf("  Last synced from %s\n", ui.RenderFaint(snap.LastActiveDevice))
	}
	return app.flush(ctx)
}

// runSignup walks a new account through profile and first property setup.
func runSignup(ctx context.Context, app *App, email string) error {
	fmt.Printf("%s No account for %s yet — let's create one\n", ui.RenderAccent("→"), email)

	var (
		name         string
		password     string
		confirm      string
		role         string
		propertyName string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Your name").
				Value(&name),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&confirm),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What kind of host are you?").
				Options(
					huh.NewOption("Airbnb host", string(state.RoleAirbnbHost)),
					huh.NewOption("Hotel manager", string(state.RoleHotelManager)),
					huh.NewOption("Homestay owner", string(state.RoleHomestay)),
				).
				Value(&role),
			huh.NewInput().
				Title("First property name").
				Description("You can add more properties later").
				Value(&propertyName),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(password) < 4 {
		return fmt.Errorf("password must be at least 4 characters")
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	user := &state.User{
		ID:         "user-" + uuid.NewString(),
		Name:       strings.TrimSpace(name),
		Email:      email,
		Provider:   "email",
		IsVerified: true,
		Role:       state.UserRole(role),
		CreatedAt:  time.Now().Format(time.RFC3339),
	}

	if err := app.Session.Signup(ctx, user, email, password); err != nil {
		return err
	}

	if p := strings.TrimSpace(propertyName); p != "" {
		app.Store.AddProperty(state.PropertyConfig{
			ID:           "prop-" + uuid.NewString(),
			Name:         p,
			IsConfigured: true,
		})
	}

	fmt.Printf("%s Welcome to HostFlow, %s\n", ui.RenderPass("✓"), user.Name)
	return app.flush(ctx)
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (skips the prompt)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (for scripting; prefer the prompt)")
	rootCmd.AddCommand(loginCmd)
}
