package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	hfsync "github.com/hostflow/hostflow/internal/sync"
	"github.com/hostflow/hostflow/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Cloud sync control",
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the current snapshot to the cloud now",
	Long: `Force an immediate cloud write, bypassing the quiet-period timer.

If a push is already in flight the request is queued and runs right
after it, so the final state always reaches the cloud.`,
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

		queued, err := app.Orch.ForcePush(ctx)
		if err != nil {
			return fmt.Errorf("push failed: %w", err)
		}
		if queued {
			fmt.Printf("%s Push queued behind one already in flight\n", ui.RenderWarn("!"))
			return nil
		}

		st := app.Orch.Status()
		fmt.Printf("%s Snapshot pushed (t=%d)\n", ui.RenderPass("✓"), st.LastSyncedAt)
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		st := app.Orch.Status()

		fmt.Printf("\n%s\n\n", ui.RenderHeading("Sync Status"))
		phase := string(st.Phase)
		switch st.Phase {
		case hfsync.PhaseReady:
			phase = ui.RenderPass(phase)
		case hfsync.PhaseLoggedOut:
			phase = ui.RenderFaint(phase)
		}
		fmt.Printf("Phase:        %s\n", phase)
		if st.LastSyncedAt > 0 {
			at := time.UnixMilli(st.LastSyncedAt)
			fmt.Printf("Last synced:  %s (%s)\n", at.Format("2006-01-02 15:04:05"), orDash(st.LastDevice))
		} else {
			fmt.Printf("Last synced:  never\n")
		}
		fmt.Printf("Push pending: %v\n", st.PushPending)
		if st.LastError != "" {
			fmt.Printf("Last error:   %s\n", ui.RenderErr(st.LastError))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}
