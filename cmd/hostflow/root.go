package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hostflow",
	Short: "Property management console for farm-stay hosts",
	Long: `HostFlow is a property management console for small hospitality
operators: check-in intake, bookings, guest CRM, inventory, financials,
and AI-assisted planning.

All data lives in one cloud snapshot per account, mirrored to a local
cache, so the same account works from any machine. Edits sync
automatically a few seconds after you stop typing; 'hostflow sync push'
forces an immediate write.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "account", Title: "Account:"},
		&cobra.Group{ID: "operations", Title: "Operations:"},
		&cobra.Group{ID: "planning", Title: "Planning:"},
		&cobra.Group{ID: "sync", Title: "Sync & Services:"},
	)
}
