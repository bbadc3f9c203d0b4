package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hostflow/hostflow/internal/daemon"
	"github.com/hostflow/hostflow/internal/dashboard"
	"github.com/hostflow/hostflow/internal/logging"
	"github.com/hostflow/hostflow/internal/ui"
)

var daemonNoDashboard bool

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Run the inbox daemon and dashboard (foreground)",
	Long: `Run the long-lived console services in the foreground.

The inbox daemon watches the kiosk drop folder and imports check-in
records as they arrive; every import flows through the normal sync path
and reaches the cloud after the quiet period. The dashboard server
broadcasts sync events and portfolio stats over WebSocket for a wall
display.

Logs rotate in the data directory so an unattended kiosk never fills
the disk. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		logger, closer := logging.NewRotating("daemon", logging.Options{
			File:       app.Cfg.Log.File,
			MaxSizeMB:  app.Cfg.Log.MaxSizeMB,
			MaxBackups: app.Cfg.Log.MaxBackups,
			MaxAgeDays: app.Cfg.Log.MaxAgeDays,
		})
		app.logCloser = closer

		if err := os.MkdirAll(app.Cfg.InboxDir, 0o755); err != nil {
			return fmt.Errorf("failed to create inbox directory: %w", err)
		}

		if !daemonNoDashboard {
			srv := dashboard.NewServer(app.Store, app.Orch, &dashboard.Config{
				Port:   app.Cfg.Dashboard.Port,
				Logger: logger,
			})
			if err := srv.Start(); err != nil {
				return err
			}
			defer func() {
				if err := srv.Stop(); err != nil {
					logger.Printf("Error stopping dashboard: %v", err)
				}
			}()
			fmt.Printf("%s Dashboard on http://%s\n", ui.RenderAccent("→"), srv.GetAddr())
		}

		d, err := daemon.NewWithConfig(app.Store, app.Cfg.InboxDir, &daemon.Config{
			DebounceInterval: daemon.DefaultConfig().DebounceInterval,
			Logger:           logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create inbox daemon: %w", err)
		}

		fmt.Printf("%s Watching inbox %s\n", ui.RenderAccent("→"), app.Cfg.InboxDir)
		fmt.Println(ui.RenderFaint("  Ctrl-C to stop"))

		if err := d.Start(ctx); err != nil {
			return err
		}

		// Push whatever the kiosk imported before we exit
		return app.flush(cmd.Context())
	},
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonNoDashboard, "no-dashboard", false, "run the inbox watcher without the WebSocket dashboard")
	rootCmd.AddCommand(daemonCmd)
}
