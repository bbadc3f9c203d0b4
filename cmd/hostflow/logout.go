package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/hostflow/hostflow/internal/ui"
)

var logoutYes bool

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: "account",
	Short:   "Sign out and clear local data",
	Long: `Sign out of the current account.

The local cache and working state are discarded. The cloud snapshot is
untouched — signing back in restores everything that was synced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		user, err := app.requireUser()
		if err != nil {
			return err
		}

		if !logoutYes {
			var confirmed bool
			form := huh.NewForm(huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Sign out %s?", user.Email)).
					Description("Local data is cleared; anything already synced stays in the cloud.").
					Value(&confirmed),
			))
			if err := form.Run(); err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Cancelled")
				return nil
			}
		}

		if err := app.Session.Logout(); err != nil {
			return err
		}

		fmt.Printf("%s Signed out\n", ui.RenderPass("✓"))
		return nil
	},
}

func init() {
	logoutCmd.Flags().BoolVarP(&logoutYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(logoutCmd)
}
