package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/costlens/costlens/pkg/config"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one synchronous pass over all workspaces and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := newLogger()

		st, err := buildStore(cfg, log)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		eng := buildEngine(cfg, st, log)

		ctx := cmd.Context()
		workspaces, err := st.ListWorkspaces(ctx)
		if err != nil {
			return fmt.Errorf("list workspaces: %w", err)
		}
		if len(workspaces) == 0 {
			log.Info("no workspaces configured, nothing to scan")
			return nil
		}

		failed := 0
		for _, ws := range workspaces {
			if err := eng.ProcessWorkspace(ctx, ws.ID); err != nil {
				log.Error("workspace scan failed", "workspace", ws.ID, "error", err)
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d workspaces failed", failed, len(workspaces))
		}
		log.Info("scan complete", "workspaces", len(workspaces))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
