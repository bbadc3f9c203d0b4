package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hostflow/hostflow/internal/state"
	"github.com/hostflow/hostflow/internal/ui"
)

var (
	propertyManager   string
	propertyEmailFlag string
	propertyPhone     string
	propertyAirbnbURL string
)

var propertyCmd = &cobra.Command{
	Use:     "property",
	GroupID: "operations",
	Short:   "Manage the property portfolio",
}

var propertyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List properties",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		props := app.Store.Properties()
		if len(props) == 0 {
			fmt.Println("No properties configured")
			return nil
		}

		active := app.Store.ActivePropertyID()
		fmt.Printf("\n%s\n\n", ui.RenderHeading("Portfolio"))
		for _, p := range props {
			marker := "  "
			if p.ID == active {
				marker = ui.RenderAccent("* ")
			}
			fmt.Printf("%s%-14s %s\n", marker, p.ID, p.Name)
			if p.ManagerName != "" {
				fmt.Printf("  %s\n", ui.RenderFaint(fmt.Sprintf("manager: %s %s", p.ManagerName, p.ManagerPhone)))
			}
		}
		fmt.Println()
		return nil
	},
}

var propertyAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a property",
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

		p := state.PropertyConfig{
			ID:           "prop-" + uuid.NewString(),
			Name:         strings.Join(args, " "),
			ManagerName:  propertyManager,
			ManagerEmail: propertyEmailFlag,
			ManagerPhone: propertyPhone,
			AirbnbURL:    propertyAirbnbURL,
			IsConfigured: true,
		}
		app.Store.AddProperty(p)

		fmt.Printf("%s Added %s (%s)\n", ui.RenderPass("✓"), p.Name, shortID(p.ID))
		return app.flush(ctx)
	},
}

var propertySwitchCmd = &cobra.Command{
	Use:   "switch <property-id|all>",
	Short: "Set the active property",
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

		target := args[0]
		if target != state.ActiveAll {
			found := false
			for _, p := range app.Store.Properties() {
				if p.ID == target || shortID(p.ID) == target {
					target = p.ID
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("no property with ID %q", args[0])
			}
		}

		app.Store.SetActiveProperty(target)

		fmt.Printf("%s Active property set to %s\n", ui.RenderPass("✓"), target)
		return app.flush(ctx)
	},
}

func init() {
	propertyAddCmd.Flags().StringVar(&propertyManager, "manager", "", "on-site manager name")
	propertyAddCmd.Flags().StringVar(&propertyEmailFlag, "manager-email", "", "manager email")
	propertyAddCmd.Flags().StringVar(&propertyPhone, "manager-phone", "", "manager phone")
	propertyAddCmd.Flags().StringVar(&propertyAirbnbURL, "airbnb-url", "", "Airbnb listing URL")
	propertyCmd.AddCommand(propertyListCmd)
	propertyCmd.AddCommand(propertyAddCmd)
	propertyCmd.AddCommand(propertySwitchCmd)
	rootCmd.AddCommand(propertyCmd)
}
