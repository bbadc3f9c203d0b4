package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hostflow/hostflow/internal/state"
	"github.com/hostflow/hostflow/internal/ui"
)

var guestsProperty string

var guestsCmd = &cobra.Command{
	Use:     "guests",
	GroupID: "operations",
	Short:   "Guest CRM",
	Long: `Browse and annotate the guest book.

Guests are deduplicated across stays by email or phone, so a returning
guest keeps one record with a running stay count.`,
}

var guestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List guests",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		guests := app.Store.Guests(propertyOrAll(guestsProperty))
		if len(guests) == 0 {
			fmt.Println("No guests yet")
			return nil
		}

		fmt.Printf("\n%s\n\n", ui.RenderHeading("Guest Book"))
		fmt.Printf("%-13s %-22s %-26s %-14s %5s %6s\n", "ID", "NAME", "EMAIL", "PHONE", "STAYS", "RATING")
		for _, g := range guests {
			fmt.Printf("%-13s %-22s %-26s %-14s %5d %6.1f\n",
				shortID(g.ID), g.Name, orDash(g.Email), orDash(g.Phone), g.TotalStays, g.Rating)
		}
		fmt.Println()
		return nil
	},
}

var guestsShowCmd = &cobra.Command{
	Use:   "show <guest-id>",
	Short: "Show a guest's full record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		g, err := findGuest(app, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("\n%s\n\n", ui.RenderHeading(g.Name))
		fmt.Printf("Email:      %s\n", orDash(g.Email))
		fmt.Printf("Phone:      %s\n", orDash(g.Phone))
		fmt.Printf("Stays:      %d\n", g.TotalStays)
		fmt.Printf("Last stay:  %s\n", orDash(g.LastStay))
		fmt.Printf("Rating:     %.1f\n", g.Rating)
		if g.IDType != "" {
			fmt.Printf("ID:         %s %s\n", g.IDType, g.IDNumber)
		}
		if g.VehicleNumber != "" {
			fmt.Printf("Vehicle:    %s\n", g.VehicleNumber)
		}
		if g.Notes != "" {
			fmt.Printf("\nNotes:\n%s\n", ui.RenderFaint(g.Notes))
		}
		fmt.Println()
		return nil
	},
}

var guestsNoteCmd = &cobra.Command{
	Use:   "note <guest-id> <text...>",
	Short: "Attach a note to a guest",
	Args:  cobra.MinimumNArgs(2),
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

		g, err := findGuest(app, args[0])
		if err != nil {
			return err
		}

		note := strings.Join(args[1:], " ")
		if g.Notes != "" {
			g.Notes += "\n"
		}
		g.Notes += note
		app.Store.UpsertGuest(*g)

		fmt.Printf("%s Note added for %s\n", ui.RenderPass("✓"), g.Name)
		return app.flush(ctx)
	},
}

var guestsRemoveCmd = &cobra.Command{
	Use:   "remove <guest-id>",
	Short: "Remove a guest record",
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

		g, err := findGuest(app, args[0])
		if err != nil {
			return err
		}

		app.Store.DeleteGuest(g.ID)

		fmt.Printf("%s Removed %s from the guest book\n", ui.RenderPass("✓"), g.Name)
		return app.flush(ctx)
	},
}

// findGuest resolves a guest by full or shortened ID.
func findGuest(app *App, id string) (*state.Guest, error) {
	for _, g := range app.Store.Guests(state.ActiveAll) {
		if g.ID == id || shortID(g.ID) == id {
			return &g, nil
		}
	}
	return nil, fmt.Errorf("no guest with ID %q", id)
}

func init() {
	guestsCmd.PersistentFlags().StringVarP(&guestsProperty, "property", "p", "", "limit to one property ID")
	guestsCmd.AddCommand(guestsListCmd)
	guestsCmd.AddCommand(guestsShowCmd)
	guestsCmd.AddCommand(guestsNoteCmd)
	guestsCmd.AddCommand(guestsRemoveCmd)
	rootCmd.AddCommand(guestsCmd)
}
