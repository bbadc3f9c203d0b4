package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hostflow/hostflow/internal/state"
	"github.com/hostflow/hostflow/internal/ui"
)

var packageDesc string

var packagesCmd = &cobra.Command{
	Use:     "packages",
	GroupID: "operations",
	Short:   "Stay packages offered at check-in",
}

var packagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stay packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		pkgs := app.Store.StayPackages()
		if len(pkgs) == 0 {
			fmt.Println("No stay packages configured")
			return nil
		}

		fmt.Printf("\n%s\n\n", ui.RenderHeading("Stay Packages"))
		for _, p := range pkgs {
			fmt.Printf("%-10s %s\n", p.ID, ui.RenderAccent(p.Title))
			if p.Desc != "" {
				fmt.Printf("           %s\n", ui.RenderFaint(p.Desc))
			}
		}
		fmt.Println()
		return nil
	},
}

var packagesAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a stay package",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		pkgs := app.Store.StayPackages()
		pkgs = append(pkgs, state.StayPackage{
			ID:    "pkg-" + uuid.NewString(),
			Title: strings.Join(args, " "),
			Desc:  packageDesc,
		})
		app.Store.SetStayPackages(pkgs)

		fmt.Printf("%s Added package %q\n", ui.RenderPass("✓"), strings.Join(args, " "))
		return app.flush(ctx)
	},
}

var packagesRemoveCmd = &cobra.Command{
	Use:   "remove <package-id>",
	Short: "Remove a stay package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		pkgs := app.Store.StayPackages()
		kept := pkgs[:0]
		removed := false
		for _, p := range pkgs {
			if p.ID == args[0] {
				removed = true
				continue
			}
			kept = append(kept, p)
		}
		if !removed {
			return fmt.Errorf("no package with ID %q", args[0])
		}
		app.Store.SetStayPackages(kept)

		fmt.Printf("%s Package removed\n", ui.RenderPass("✓"))
		return app.flush(ctx)
	},
}

func init() {
	packagesAddCmd.Flags().StringVar(&packageDesc, "desc", "", "package description")
	packagesCmd.AddCommand(packagesListCmd)
	packagesCmd.AddCommand(packagesAddCmd)
	packagesCmd.AddCommand(packagesRemoveCmd)
	rootCmd.AddCommand(packagesCmd)
}
