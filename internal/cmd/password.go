package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	resetEmail       string
	resetCode        string
	resetNewPassword string
)

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a password reset code",
	RunE: func(cmd *cobra.Command, args []string) error {
		if resetEmail == "" {
			return fmt.Errorf("--email is required")
		}

		s, err := newStack()
		if err != nil {
			return err
		}

		ack, err := s.manager.ForgotPassword(cmd.Context(), resetEmail)
		if err != nil {
			return err
		}
		fmt.Println(ack.Message)
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Reset your password with the emailed code",
	RunE: func(cmd *cobra.Command, args []string) error {
		if resetEmail == "" || resetCode == "" || resetNewPassword == "" {
			return fmt.Errorf("--email, --code and --new-password are required")
		}

		s, err := newStack()
		if err != nil {
			return err
		}

		ack, err := s.manager.ResetPassword(cmd.Context(), resetEmail, resetCode, resetNewPassword)
		if err != nil {
			return err
		}
		fmt.Println(ack.Message)
		return nil
	},
}

func init() {
	forgotPasswordCmd.Flags().StringVar(&resetEmail, "email", "", "account email")

	resetPasswordCmd.Flags().StringVar(&resetEmail, "email", "", "account email")
	resetPasswordCmd.Flags().StringVar(&resetCode, "code", "", "reset code from the email")
	resetPasswordCmd.Flags().StringVar(&resetNewPassword, "new-password", "", "new password")

	rootCmd.AddCommand(forgotPasswordCmd)
	rootCmd.AddCommand(resetPasswordCmd)
}
