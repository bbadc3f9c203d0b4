package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hostflow/hostflow/internal/state"
	"github.com/hostflow/hostflow/internal/ui"
)

var (
	staffProperty string
	staffType     string
)

var staffCmd = &cobra.Command{
	Use:     "staff",
	GroupID: "operations",
	Short:   "Staff portal audit log",
	Long: `Record and review actions taken by on-site staff.

Entries are append-only; the log is the audit trail for anything staff
did on behalf of the operator.`,
}

var staffListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the staff log",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		logs := app.Store.StaffLogs(propertyOrAll(staffProperty))
		if len(logs) == 0 {
			fmt.Println("No staff log entries")
			return nil
		}

		fmt.Printf("\n%s\n\n", ui.RenderHeading("Staff Log"))
		for _, l := range logs {
			fmt.Printf("%-21s %-12s %s\n", l.Timestamp, l.Type, l.Action)
		}
		fmt.Println()
		return nil
	},
}

var staffLogCmd = &cobra.Command{
	Use:   "log <action...>",
	Short: "Append a staff log entry",
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

		typ := strings.ToUpper(staffType)
		if typ != "FINANCIAL" && typ != "OPERATIONAL" {
			return fmt.Errorf("type must be FINANCIAL or OPERATIONAL")
		}

		props := app.Store.Properties()
		propertyID := staffProperty
		if propertyID == "" && len(props) > 0 {
			propertyID = props[0].ID
		}

		app.Store.AddStaffLog(state.StaffLog{
			ID:         "log-" + uuid.NewString(),
			PropertyID: propertyID,
			Type:       typ,
			Action:     strings.Join(args, " "),
			Timestamp:  time.Now().Format("2006-01-02 15:04:05"),
		})

		fmt.Printf("%s Logged\n", ui.RenderPass("✓"))
		return app.flush(ctx)
	},
}

func init() {
	staffCmd.PersistentFlags().StringVarP(&staffProperty, "property", "p", "", "limit to one property ID")
	staffLogCmd.Flags().StringVar(&staffType, "type", "OPERATIONAL", "FINANCIAL or OPERATIONAL")
	staffCmd.AddCommand(staffListCmd)
	staffCmd.AddCommand(staffLogCmd)
	rootCmd.AddCommand(staffCmd)
}
