package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hostflow/hostflow/internal/state"
	"github.com/hostflow/hostflow/internal/ui"
)

var (
	inventoryCategory  string
	inventoryThreshold int
	inventoryUnit      string
)

var inventoryCmd = &cobra.Command{
	Use:     "inventory",
	GroupID: "operations",
	Short:   "Track housekeeping and consumable stock",
	Long: `Track stock levels across the property.

Every item carries a restock threshold; 'list' flags anything at or
below it. 'use' and 'restock' adjust quantities — stock never goes
negative.`,
}

var inventoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inventory with stock status",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		items := app.Store.Inventory(state.ActiveAll)
		if len(items) == 0 {
			fmt.Println("No inventory items")
			return nil
		}

		fmt.Printf("\n%s\n\n", ui.RenderHeading("Inventory"))
		fmt.Printf("%-13s %-24s %-14s %8s %6s  %s\n", "ID", "NAME", "CATEGORY", "QTY", "MIN", "STATUS")
		for _, item := range items {
			status := string(item.Status())
			switch item.Status() {
			case state.OutOfStock:
				status = ui.RenderErr(status)
			case state.LowStock:
				status = ui.RenderWarn(status)
			}
			fmt.Printf("%-13s %-24s %-14s %8d %6d  %s\n",
				shortID(item.ID), item.Name, item.Category, item.Quantity, item.MinThreshold, status)
		}
		fmt.Println()
		return nil
	},
}

var inventoryAddCmd = &cobra.Command{
	Use:   "add <name> <quantity>",
	Short: "Add a new inventory item",
	Args:  cobra.ExactArgs(2),
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

		qty, err := strconv.Atoi(args[1])
		if err != nil || qty < 0 {
			return fmt.Errorf("quantity must be a non-negative number")
		}

		category := state.InventoryCategory(inventoryCategory)
		switch category {
		case state.CategoryUsables, state.CategoryConsumables, state.CategoryLinen, state.CategoryMaintenance:
		default:
			return fmt.Errorf("category must be one of: Usables, Consumables, Linen, Maintenance")
		}

		item := state.InventoryItem{
			ID:           "inv-" + uuid.NewString(),
			Name:         strings.TrimSpace(args[0]),
			Category:     category,
			Quantity:     qty,
			MinThreshold: inventoryThreshold,
			Unit:         inventoryUnit,
		}
		app.Store.AddInventoryItem(item)

		fmt.Printf("%s Added %s (%d %s)\n", ui.RenderPass("✓"), item.Name, qty, orDash(item.Unit))
		return app.flush(ctx)
	},
}

// adjustInventory is shared by 'use' and 'restock'.
func adjustInventory(cmd *cobra.Command, args []string, sign int) error {
	ctx := cmd.Context()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	item, err := findInventoryItem(app, args[0])
	if err != nil {
		return err
	}

	delta, err := strconv.Atoi(args[1])
	if err != nil || delta <= 0 {
		return fmt.Errorf("amount must be a positive number")
	}

	if !app.Store.AdjustInventory(item.ID, sign*delta) {
		return fmt.Errorf("no inventory item with ID %q", args[0])
	}

	updated, _ := findInventoryItem(app, item.ID)
	fmt.Printf("%s %s now at %d\n", ui.RenderPass("✓"), updated.Name, updated.Quantity)
	if updated.Status() != state.InStock {
		fmt.Println(ui.RenderWarn(fmt.Sprintf("! %s is below its restock threshold", updated.Name)))
	}
	return app.flush(ctx)
}

var inventoryUseCmd = &cobra.Command{
	Use:   "use <item-id> <amount>",
	Short: "Consume stock",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return adjustInventory(cmd, args, -1)
	},
}

var inventoryRestockCmd = &cobra.Command{
	Use:   "restock <item-id> <amount>",
	Short: "Add stock",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return adjustInventory(cmd, args, 1)
	},
}

// findInventoryItem resolves an item by full or shortened ID.
func findInventoryItem(app *App, id string) (*state.InventoryItem, error) {
	for _, item := range app.Store.Inventory(state.ActiveAll) {
		if item.ID == id || shortID(item.ID) == id {
			return &item, nil
		}
	}
	return nil, fmt.Errorf("no inventory item with ID %q", id)
}

func init() {
	inventoryAddCmd.Flags().StringVar(&inventoryCategory, "category", "Consumables", "Usables, Consumables, Linen, or Maintenance")
	inventoryAddCmd.Flags().IntVar(&inventoryThreshold, "min", 5, "restock threshold")
	inventoryAddCmd.Flags().StringVar(&inventoryUnit, "unit", "", "unit label, e.g. kg or pieces")
	inventoryCmd.AddCommand(inventoryListCmd)
	inventoryCmd.AddCommand(inventoryAddCmd)
	inventoryCmd.AddCommand(inventoryUseCmd)
	inventoryCmd.AddCommand(inventoryRestockCmd)
	rootCmd.AddCommand(inventoryCmd)
}
