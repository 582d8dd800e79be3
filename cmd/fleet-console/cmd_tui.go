package main

import (
	"fleet-console/internal/selection"
	"fleet-console/internal/tui"
	"fleet-console/internal/viewmodel"

	"github.com/spf13/cobra"
)

// tuiCmd starts the interactive console
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse fleets and drivers interactively",
	Long: `Open the interactive console.

Fleet list:   j/k move, enter open, d delete, r refresh, q quit
Fleet detail: j/k move, x dismiss driver, r refresh, esc back`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	list := viewmodel.NewFleetList(client, logger)
	detail := viewmodel.NewFleetDetail(client, selection.NewMemoryStore(), logger)
	return tui.Run(commandContext(cmd), list, detail)
}
