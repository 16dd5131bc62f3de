package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrapped(cmd.Context())
		if err != nil {
			return err
		}

		state := s.manager.State()
		if !state.Authenticated {
			fmt.Println("Not logged in")
			return nil
		}

		user := state.User
		fmt.Printf("%s <%s>\n", user.Name, user.Email)
		if user.MatricNumber != "" {
			fmt.Printf("Matric number: %s\n", user.MatricNumber)
		}
		switch {
		case user.SuperAdmin:
			fmt.Println("Role: super admin")
		case user.IsAdmin:
			fmt.Println("Role: provider")
		default:
			fmt.Println("Role: student")
		}
		if user.IsProvider() {
			if user.PrintingLocation != nil {
				fmt.Printf("Location: %s\n", *user.PrintingLocation)
			}
			if user.OpeningHours != nil {
				fmt.Printf("Opening hours: %s\n", *user.OpeningHours)
			}
			fmt.Printf("Documents received: %d\n", user.DocumentsReceived)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
