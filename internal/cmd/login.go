package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/you/uploaddoc/domain"
)

var (
	loginEmail    string
	loginPassword string
	loginRemember bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to UploadDoc",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newStack()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		email := loginEmail
		if email == "" {
			if remembered, ok := s.manager.RememberedEmail(ctx); ok {
				email = remembered
				fmt.Printf("Using remembered email %s\n", email)
			}
		}
		if email == "" || loginPassword == "" {
			return fmt.Errorf("--email and --password are required")
		}

		if err := s.manager.Login(ctx, email, loginPassword); err != nil {
			if apiErr, ok := domain.AsAPIError(err); ok && apiErr.NeedsVerification {
				return fmt.Errorf("%s: run `uploadctl verify --email %s --code <code>`", apiErr.Message, email)
			}
			return err
		}

		if loginRemember {
			if err := s.manager.RememberEmail(ctx, email); err != nil {
				fmt.Printf("Warning: could not remember email: %v\n", err)
			}
		}

		state := s.manager.State()
		fmt.Printf("Logged in as %s (%s)\n", state.User.Name, state.User.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newStack()
		if err != nil {
			return err
		}

		if !s.manager.Logout(cmd.Context()) {
			fmt.Println("Logged out, but stored credentials could not be fully cleared")
			return nil
		}
		fmt.Println("Logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	loginCmd.Flags().BoolVar(&loginRemember, "remember", false, "remember this email for the next login")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
