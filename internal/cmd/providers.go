package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	providersPage   int
	providersLimit  int
	providersSearch string
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Browse printing providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrapped(cmd.Context())
		if err != nil {
			return err
		}
		token, err := s.requireSession()
		if err != nil {
			return err
		}

		page, err := s.client.Providers(cmd.Context(), providersPage, providersLimit, providersSearch, token)
		if err != nil {
			return err
		}

		if len(page.Admins) == 0 {
			fmt.Println("No providers found")
			return nil
		}

		for _, p := range page.Admins {
			line := fmt.Sprintf("%-24s  %s", p.Name, p.Email)
			if p.PrintingLocation != nil {
				line += "  @ " + *p.PrintingLocation
			}
			if p.PrintingCost != nil {
				line += "  (" + *p.PrintingCost + ")"
			}
			fmt.Println(line)
		}
		fmt.Printf("Page %d of %d (%d providers)\n",
			page.Pagination.Page, page.Pagination.TotalPages, page.Pagination.TotalItems)
		return nil
	},
}

func init() {
	providersCmd.Flags().IntVar(&providersPage, "page", 1, "page number")
	providersCmd.Flags().IntVar(&providersLimit, "limit", 10, "results per page")
	providersCmd.Flags().StringVar(&providersSearch, "search", "", "filter providers by name")
	rootCmd.AddCommand(providersCmd)
}
