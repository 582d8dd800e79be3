package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"fleet-console/internal/viewmodel"

	"github.com/spf13/cobra"
)

var fleetDescription string

// fleetsCmd groups fleet commands
var fleetsCmd = &cobra.Command{
	Use:   "fleets",
	Short: "List, create and delete fleets",
}

var fleetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List fleets",
	Args:  cobra.NoArgs,
	RunE:  runFleetsList,
}

var fleetsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a fleet",
	Args:  cobra.ExactArgs(1),
	RunE:  runFleetsCreate,
}

var fleetsDeleteCmd = &cobra.Command{
	Use:   "delete <fleet-id>...",
	Short: "Delete one or more fleets",
	Long: `Delete fleets by id. Each fleet is dropped from the local list before
the delete request is sent; a failed request is reported but not retried.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFleetsDelete,
}

func init() {
	fleetsCreateCmd.Flags().StringVarP(&fleetDescription, "description", "d", "", "Fleet description")

	fleetsCmd.AddCommand(fleetsListCmd)
	fleetsCmd.AddCommand(fleetsCreateCmd)
	fleetsCmd.AddCommand(fleetsDeleteCmd)
}

func runFleetsList(cmd *cobra.Command, args []string) error {
	list := viewmodel.NewFleetList(client, logger)
	if err := list.Fetch(commandContext(cmd)); err != nil {
		return fmt.Errorf("failed to list fleets: %w", err)
	}

	fleets := list.Fleets()
	if len(fleets) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No fleets.")
		return nil
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tDESCRIPTION")
	for _, fleet := range fleets {
		fmt.Fprintf(writer, "%d\t%s\t%s\n", fleet.ID, fleet.Name, fleet.Description)
	}
	return writer.Flush()
}

func runFleetsCreate(cmd *cobra.Command, args []string) error {
	list := viewmodel.NewFleetList(client, logger)
	fleetID, err := list.Create(commandContext(cmd), args[0], fleetDescription)
	if err != nil {
		return fmt.Errorf("failed to create fleet: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created fleet %d (%s)\n", fleetID, args[0])
	return nil
}

func runFleetsDelete(cmd *cobra.Command, args []string) error {
	fleetIDs, err := parseIDs("fleet", args)
	if err != nil {
		return err
	}

	list := viewmodel.NewFleetList(client, logger)
	ctx := commandContext(cmd)

	var errs []error
	for _, fleetID := range fleetIDs {
		if err := list.Remove(ctx, fleetID); err != nil {
			errs = append(errs, fmt.Errorf("fleet %d: %w", fleetID, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted fleet %d\n", fleetID)
	}
	return errors.Join(errs...)
}
