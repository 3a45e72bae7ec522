package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cinevault/cinevault/internal/auth"
	"github.com/cinevault/cinevault/internal/model"
	"github.com/cinevault/cinevault/internal/store"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
		Long:  "Create and list administrative accounts that can manage CineVault through the admin API.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		username string
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin account",
		Example: `  cinevault admin create --username admin --email admin@example.com --password Secret123
  cinevault admin create --username admin --email admin@example.com  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(cmd, username, email, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username (required)")
	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runAdminCreate(cmd *cobra.Command, username, email, password string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %q", email)
	}
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters")
	}

	if password == "" {
		var err error
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}
	if !auth.StrongPassword(password) {
		return fmt.Errorf("password must be at least 8 characters with an uppercase letter, a lowercase letter, and a digit")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account := &model.Account{
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Status:       model.StatusActive,
	}
	if err := st.CreateAccount(cmd.Context(), account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("an account with that username or email already exists")
		}
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Printf("Created admin account %q (id %d)\n", email, account.ID)
	return nil
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Println()

	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(cmd *cobra.Command, jsonOutput bool) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	admins, _, err := st.ListAccounts(cmd.Context(), store.AccountFilter{
		Role: model.RoleAdmin,
		Size: 100,
	})
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(admins)
	}

	if len(admins) == 0 {
		fmt.Println("No admin accounts configured. Use 'cinevault admin create' to create one.")
		return nil
	}

	fmt.Printf("%-6s %-20s %-30s %-10s\n", "ID", "USERNAME", "EMAIL", "STATUS")
	fmt.Printf("%-6s %-20s %-30s %-10s\n", "--", "--------", "-----", "------")
	for _, a := range admins {
		fmt.Printf("%-6d %-20s %-30s %-10s\n", a.ID, a.Username, a.Email, a.Status)
	}

	return nil
}

// openStore opens the store configured by the active config file, falling
// back to the embedded SQLite default.
func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}
