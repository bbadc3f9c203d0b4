package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hostflow/hostflow/internal/state"
	"github.com/hostflow/hostflow/internal/ui"
)

var (
	financeProperty string
	financeDate     string
	financeCategory string
)

var financeCmd = &cobra.Command{
	Use:     "finance",
	GroupID: "operations",
	Short:   "Income and expense ledger",
}

var financeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ledger entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		txns := app.Store.Transactions(propertyOrAll(financeProperty))
		if len(txns) == 0 {
			fmt.Println("No ledger entries")
			return nil
		}

		fmt.Printf("\n%s\n\n", ui.RenderHeading("Ledger"))
		fmt.Printf("%-12s %-12s %-8s %-14s %10s  %s\n", "ID", "DATE", "TYPE", "CATEGORY", "AMOUNT", "DESCRIPTION")
		for _, t := range txns {
			fmt.Printf("%-12s %-12s %-8s %-14s %10.2f  %s\n",
				shortID(t.ID), t.Date, t.Type, orDash(t.Category), t.Amount, t.Description)
		}
		fmt.Println()
		return nil
	},
}

// addTransaction is shared by the income and expense subcommands.
func addTransaction(cmd *cobra.Command, args []string, typ state.TransactionType) error {
	ctx := cmd.Context()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("amount must be a positive number")
	}

	date := financeDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if date, err = parseDate(date, time.Now()); err != nil {
		return err
	}

	props := app.Store.Properties()
	propertyID := financeProperty
	if propertyID == "" {
		if len(props) == 0 {
			return fmt.Errorf("no properties configured — run 'hostflow property add' first")
		}
		propertyID = props[0].ID
	}

	t := state.Transaction{
		ID:          "txn-" + uuid.NewString(),
		PropertyID:  propertyID,
		Date:        date,
		Type:        typ,
		Category:    financeCategory,
		Amount:      amount,
		Description: strings.Join(args[1:], " "),
	}
	app.Store.AddTransaction(t)

	fmt.Printf("%s Recorded %s of %.2f on %s\n", ui.RenderPass("✓"), strings.ToLower(string(typ)), amount, date)
	return app.flush(ctx)
}

var financeIncomeCmd = &cobra.Command{
	Use:   "income <amount> [description...]",
	Short: "Record income",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return addTransaction(cmd, args, state.Income)
	},
}

var financeExpenseCmd = &cobra.Command{
	Use:   "expense <amount> [description...]",
	Short: "Record an expense",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return addTransaction(cmd, args, state.Expense)
	},
}

var financeRemoveCmd = &cobra.Command{
	Use:   "remove <transaction-id>",
	Short: "Delete a ledger entry",
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

		var target *state.Transaction
		for _, t := range app.Store.Transactions(state.ActiveAll) {
			if t.ID == args[0] || shortID(t.ID) == args[0] {
				target = &t
				break
			}
		}
		if target == nil {
			return fmt.Errorf("no ledger entry with ID %q", args[0])
		}

		app.Store.DeleteTransaction(target.ID)

		fmt.Printf("%s Removed %s entry of %.2f\n", ui.RenderPass("✓"), strings.ToLower(string(target.Type)), target.Amount)
		return app.flush(ctx)
	},
}

var financeSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Portfolio income, expenses, and net",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		var income, expenses float64
		byCategory := make(map[string]float64)
		for _, t := range app.Store.Transactions(propertyOrAll(financeProperty)) {
			switch t.Type {
			case state.Income:
				income += t.Amount
			case state.Expense:
				expenses += t.Amount
			}
			cat := t.Category
			if cat == "" {
				cat = "Uncategorized"
			}
			byCategory[cat] += t.Amount
		}

		fmt.Printf("\n%s\n\n", ui.RenderHeading("Financial Summary"))
		fmt.Printf("Income:   %12.2f\n", income)
		fmt.Printf("Expenses: %12.2f\n", expenses)
		net := income - expenses
		line := fmt.Sprintf("Net:      %12.2f", net)
		if net >= 0 {
			fmt.Println(ui.RenderPass(line))
		} else {
			fmt.Println(ui.RenderErr(line))
		}
		if len(byCategory) > 0 {
			fmt.Printf("\nBy category:\n")
			for cat, total := range byCategory {
				fmt.Printf("  %-16s %10.2f\n", cat, total)
			}
		}
		fmt.Println()
		return nil
	},
}

func init() {
	financeCmd.PersistentFlags().StringVarP(&financeProperty, "property", "p", "", "limit to one property ID")
	financeIncomeCmd.Flags().StringVar(&financeDate, "date", "", "entry date (default today)")
	financeIncomeCmd.Flags().StringVar(&financeCategory, "category", "", "ledger category")
	financeExpenseCmd.Flags().StringVar(&financeDate, "date", "", "entry date (default today)")
	financeExpenseCmd.Flags().StringVar(&financeCategory, "category", "", "ledger category")
	financeCmd.AddCommand(financeListCmd)
	financeCmd.AddCommand(financeIncomeCmd)
	financeCmd.AddCommand(financeExpenseCmd)
	financeCmd.AddCommand(financeRemoveCmd)
	financeCmd.AddCommand(financeSummaryCmd)
	rootCmd.AddCommand(financeCmd)
}
