package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/you/uploaddoc/domain"
)

var registerReq domain.RegisterRequest

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an UploadDoc account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if registerReq.Name == "" || registerReq.Email == "" || registerReq.Password == "" {
			return fmt.Errorf("--name, --email and --password are required")
		}

		s, err := newStack()
		if err != nil {
			return err
		}

		ack, err := s.manager.Register(cmd.Context(), registerReq)
		if err != nil {
			return err
		}

		fmt.Println(ack.Message)
		fmt.Printf("Verify with `uploadctl verify --email %s --code <code>`\n", ack.Email)
		return nil
	},
}

var (
	verifyEmailFlag string
	verifyCode      string
	verifyResend    bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify your email with the emailed code",
	RunE: func(cmd *cobra.Command, args []string) error {
		if verifyEmailFlag == "" {
			return fmt.Errorf("--email is required")
		}

		s, err := newStack()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if verifyResend {
			ack, err := s.manager.ResendVerificationCode(ctx, verifyEmailFlag)
			if err != nil {
				return err
			}
			fmt.Println(ack.Message)
			return nil
		}

		if verifyCode == "" {
			return fmt.Errorf("--code is required (or --resend for a new code)")
		}

		if err := s.manager.VerifyEmail(ctx, verifyEmailFlag, verifyCode); err != nil {
			if apiErr, ok := domain.AsAPIError(err); ok {
				if apiErr.NeedsRegistration {
					return fmt.Errorf("%s: run `uploadctl register` first", apiErr.Message)
				}
				if apiErr.AttemptsRemaining != nil {
					return fmt.Errorf("%s (%d attempts remaining)", apiErr.Message, *apiErr.AttemptsRemaining)
				}
			}
			return err
		}

		state := s.manager.State()
		fmt.Printf("Email verified, logged in as %s\n", state.User.Email)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerReq.Name, "name", "", "full name")
	registerCmd.Flags().StringVar(&registerReq.Email, "email", "", "account email")
	registerCmd.Flags().StringVar(&registerReq.MatricNumber, "matric", "", "matric number")
	registerCmd.Flags().StringVar(&registerReq.Password, "password", "", "account password")

	verifyCmd.Flags().StringVar(&verifyEmailFlag, "email", "", "account email")
	verifyCmd.Flags().StringVar(&verifyCode, "code", "", "verification code from the email")
	verifyCmd.Flags().BoolVar(&verifyResend, "resend", false, "request a new verification code")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(verifyCmd)
}
