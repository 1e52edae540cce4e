package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/crucial707/hci-lending/cmd/cli/client"
	"github.com/crucial707/hci-lending/cmd/cli/config"
	"github.com/spf13/cobra"
)

// InitAuth registers login and logout on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), logoutCmd())
}

// loginCmd logs a staff user in and stores the JWT token locally.
func loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the lending API",
		Long: `Authenticate with the lending API and store a JWT token for subsequent CLI commands.
The password is read from --password, then LENDING_PASSWORD, then a prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("username is required")
			}
			if password == "" {
				password = os.Getenv("LENDING_PASSWORD")
			}
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			var loginResp struct {
				Token string `json:"token"`
				User  struct {
					FullName string `json:"full_name"`
					Role     string `json:"role"`
				} `json:"user"`
			}
			payload := map[string]string{"username": username, "password": password}
			if err := client.New().Post(cmd.Context(), "/auth/login", payload, &loginResp); err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}
			if loginResp.Token == "" {
				return fmt.Errorf("login succeeded but no token returned")
			}
			if err := config.SaveToken(loginResp.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Printf("Logged in as %s (%s). Token stored locally.\n", loginResp.User.FullName, loginResp.User.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username to authenticate as")
	cmd.Flags().StringVar(&password, "password", "", "Password (prefer LENDING_PASSWORD or the prompt)")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.RemoveToken(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}
