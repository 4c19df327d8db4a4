package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jaajung-kjs/kepco-survey/internal/outwriter"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// passwordEnv supplies the password of users add in scripts.
const passwordEnv = "KEPCO_SURVEY_USER_PASSWORD"

var errEmptyPassword = errors.New("password cannot be empty")

// readPassword resolves the password from the flag, the environment or the terminal.
func readPassword(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("password"); p != "" {
		return p, nil
	}
	if p := os.Getenv(passwordEnv); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%w: use --password or %s", errEmptyPassword, passwordEnv)
	}
	_, _ = fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	p := strings.TrimSpace(string(raw))
	if p == "" {
		return "", errEmptyPassword
	}
	return p, nil
}

// usersCmd manages survey accounts.
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage survey accounts",
	Long: `Create and list the accounts that log in to the survey.

Department accounts are named "<department>_<n>" so that response rates can be
grouped per department.`,
}

var usersAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an account",
	Long: `Create an account with a bcrypt-hashed password.

Examples:
  KEPCO_SURVEY_USER_PASSWORD=... kepco-survey users add 원주전력_1
  kepco-survey users add admin --admin`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimSpace(args[0])
		if username == "" {
			return errors.New("username cannot be empty")
		}
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		admin, _ := cmd.Flags().GetBool("admin")

		user, err := surveyStore().CreateUser(rootCtx, username, string(hash), admin)
		if err != nil {
			return err
		}
		fmt.Printf("Created user %s (id %s, admin %t)\n", user.Username, user.ID, user.IsAdmin)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List accounts and their completion state",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		users, err := surveyStore().ListUsers(rootCtx)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteUsers(users, cfg)
	},
}
