package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/you/uploaddoc/domain"
)

var (
	profileHours    string
	profileCost     string
	profileLocation string
	profileSupport  string
	profileInfo     string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your provider profile",
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update provider attributes (only set flags are changed)",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrapped(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := s.requireSession(); err != nil {
			return err
		}

		var req domain.UpdateProfileRequest
		if cmd.Flags().Changed("hours") {
			req.OpeningHours = &profileHours
		}
		if cmd.Flags().Changed("cost") {
			req.PrintingCost = &profileCost
		}
		if cmd.Flags().Changed("location") {
			req.PrintingLocation = &profileLocation
		}
		if cmd.Flags().Changed("support") {
			req.SupportContact = &profileSupport
		}
		if cmd.Flags().Changed("info") {
			req.AdditionalInfo = &profileInfo
		}

		user, err := s.manager.UpdateProfile(cmd.Context(), req)
		if err != nil {
			return err
		}

		fmt.Printf("Profile updated for %s\n", user.Email)
		return nil
	},
}

func init() {
	profileUpdateCmd.Flags().StringVar(&profileHours, "hours", "", "opening hours")
	profileUpdateCmd.Flags().StringVar(&profileCost, "cost", "", "printing cost")
	profileUpdateCmd.Flags().StringVar(&profileLocation, "location", "", "printing location")
	profileUpdateCmd.Flags().StringVar(&profileSupport, "support", "", "support contact")
	profileUpdateCmd.Flags().StringVar(&profileInfo, "info", "", "additional info")

	profileCmd.AddCommand(profileUpdateCmd)
	rootCmd.AddCommand(profileCmd)
}
