package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/you/uploaddoc/domain"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage print jobs",
}

var (
	projectsListPage  int
	projectsListLimit int
)

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your print jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrapped(cmd.Context())
		if err != nil {
			return err
		}
		token, err := s.requireSession()
		if err != nil {
			return err
		}

		user := s.manager.State().User
		var page *domain.ProjectPage
		if user.IsProvider() {
			page, err = s.client.AssignedProjects(cmd.Context(), user.ID, projectsListPage, projectsListLimit, token)
		} else {
			page, err = s.client.StudentProjects(cmd.Context(), user.ID, projectsListPage, projectsListLimit, token)
		}
		if err != nil {
			return err
		}

		if len(page.Projects) == 0 {
			fmt.Println("No print jobs")
			return nil
		}
		for _, p := range page.Projects {
			fmt.Printf("%-10s  %-9s  %s (%s)\n", p.ID, p.Status, p.Title, p.FileName)
		}
		return nil
	},
}

var (
	uploadTitle   string
	uploadAdminID string
	uploadCopies  int
)

var projectsUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document for printing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if uploadAdminID == "" {
			return fmt.Errorf("--provider is required, find one with `uploadctl providers`")
		}

		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading document: %w", err)
		}

		s, err := bootstrapped(cmd.Context())
		if err != nil {
			return err
		}
		token, err := s.requireSession()
		if err != nil {
			return err
		}

		title := uploadTitle
		if title == "" {
			title = filepath.Base(args[0])
		}

		project, err := s.client.Upload(cmd.Context(), domain.ProjectUpload{
			Title:    title,
			FileName: filepath.Base(args[0]),
			AdminID:  uploadAdminID,
			Copies:   uploadCopies,
			Content:  content,
		}, token)
		if err != nil {
			return err
		}

		fmt.Printf("Uploaded %s as %s (status %s)\n", project.FileName, project.ID, project.Status)
		return nil
	},
}

var projectsAcceptCmd = &cobra.Command{
	Use:   "accept <project-id>",
	Short: "Accept a print job (providers only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrapped(cmd.Context())
		if err != nil {
			return err
		}
		token, err := s.requireSession()
		if err != nil {
			return err
		}

		project, err := s.client.AcceptProject(cmd.Context(), args[0], token)
		if err != nil {
			return err
		}
		fmt.Printf("Accepted %s (%s)\n", project.ID, project.Title)
		return nil
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a print job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrapped(cmd.Context())
		if err != nil {
			return err
		}
		token, err := s.requireSession()
		if err != nil {
			return err
		}

		if err := s.client.DeleteProject(cmd.Context(), args[0], token); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	projectsListCmd.Flags().IntVar(&projectsListPage, "page", 1, "page number")
	projectsListCmd.Flags().IntVar(&projectsListLimit, "limit", 10, "results per page")

	projectsUploadCmd.Flags().StringVar(&uploadTitle, "title", "", "job title (defaults to the file name)")
	projectsUploadCmd.Flags().StringVar(&uploadAdminID, "provider", "", "provider ID to print with")
	projectsUploadCmd.Flags().IntVar(&uploadCopies, "copies", 1, "number of copies")

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsUploadCmd)
	projectsCmd.AddCommand(projectsAcceptCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)
	rootCmd.AddCommand(projectsCmd)
}
