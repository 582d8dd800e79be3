package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fleet-console/internal/api"
	"fleet-console/internal/selection"
	"fleet-console/internal/viewmodel"

	"github.com/spf13/cobra"
)

// driversCmd groups driver commands
var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "Show, dismiss and invite the drivers of a fleet",
}

var driversListCmd = &cobra.Command{
	Use:   "list <fleet-id>",
	Short: "Show a fleet and its drivers",
	Args:  cobra.ExactArgs(1),
	RunE:  runDriversList,
}

var driversDismissCmd = &cobra.Command{
	Use:   "dismiss <fleet-id> <driver-id>...",
	Short: "Dismiss drivers from a fleet",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runDriversDismiss,
}

var driversInvitableCmd = &cobra.Command{
	Use:   "invitable <fleet-id>",
	Short: "Show drivers that can be invited to a fleet",
	Args:  cobra.ExactArgs(1),
	RunE:  runDriversInvitable,
}

var driversInviteCmd = &cobra.Command{
	Use:   "invite <fleet-id> <driver-id>...",
	Short: "Invite drivers to a fleet",
	Long: `Invite drivers to a fleet. Drivers already in the fleet or already
invited are reported; the others are still invited.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDriversInvite,
}

func init() {
	driversCmd.AddCommand(driversListCmd)
	driversCmd.AddCommand(driversDismissCmd)
	driversCmd.AddCommand(driversInvitableCmd)
	driversCmd.AddCommand(driversInviteCmd)
}

func newFleetDetail() *viewmodel.FleetDetail {
	return viewmodel.NewFleetDetail(client, selection.NewMemoryStore(), logger)
}

func runDriversList(cmd *cobra.Command, args []string) error {
	fleetID, err := parseID("fleet", args[0])
	if err != nil {
		return err
	}

	detail := newFleetDetail()
	if err := detail.Init(commandContext(cmd), fleetID); err != nil {
		return fmt.Errorf("failed to load fleet %d: %w", fleetID, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Fleet %d: %s\n", detail.FleetID(), detail.FleetName())
	if fleet := detail.Fleet(); fleet != nil && fleet.Description != "" {
		fmt.Fprintln(out, fleet.Description)
	}
	fmt.Fprintln(out)

	drivers := detail.Drivers()
	if len(drivers) == 0 {
		fmt.Fprintln(out, "No drivers.")
		return nil
	}

	return writeDrivers(out, drivers)
}

func runDriversInvitable(cmd *cobra.Command, args []string) error {
	fleetID, err := parseID("fleet", args[0])
	if err != nil {
		return err
	}

	detail := newFleetDetail()
	ctx := commandContext(cmd)
	if err := detail.LoadFleet(ctx, fleetID); err != nil {
		return fmt.Errorf("failed to load fleet %d: %w", fleetID, err)
	}

	drivers, err := detail.InvitableDrivers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load invitable drivers: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(drivers) == 0 {
		fmt.Fprintf(out, "Every driver is already in or invited to %s.\n", detail.FleetName())
		return nil
	}
	return writeDrivers(out, drivers)
}

func writeDrivers(out io.Writer, drivers []*api.Driver) error {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tUSERNAME")
	for _, driver := range drivers {
		fmt.Fprintf(writer, "%d\t%s\t%s\n", driver.ID, driver.DisplayName(), driver.Username)
	}
	return writer.Flush()
}

func runDriversDismiss(cmd *cobra.Command, args []string) error {
	fleetID, err := parseID("fleet", args[0])
	if err != nil {
		return err
	}
	driverIDs, err := parseIDs("driver", args[1:])
	if err != nil {
		return err
	}

	detail := newFleetDetail()
	ctx := commandContext(cmd)

	var errs []error
	for _, driverID := range driverIDs {
		if err := detail.DismissDriver(ctx, fleetID, driverID); err != nil {
			errs = append(errs, fmt.Errorf("driver %d: %w", driverID, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Dismissed driver %d from fleet %d\n", driverID, fleetID)
	}
	return errors.Join(errs...)
}

func runDriversInvite(cmd *cobra.Command, args []string) error {
	fleetID, err := parseID("fleet", args[0])
	if err != nil {
		return err
	}
	driverIDs, err := parseIDs("driver", args[1:])
	if err != nil {
		return err
	}

	detail := newFleetDetail()
	ctx := commandContext(cmd)
	if err := detail.LoadFleet(ctx, fleetID); err != nil {
		return fmt.Errorf("failed to load fleet %d: %w", fleetID, err)
	}

	err = detail.InviteDrivers(ctx, driverIDs)

	var statusErr *api.StatusError
	if errors.As(err, &statusErr) && errors.Is(err, api.ErrConflict) && len(statusErr.Messages) > 0 {
		return fmt.Errorf("some drivers were not invited to %s:\n  %s",
			detail.FleetName(), strings.Join(statusErr.Messages, "\n  "))
	}
	if err != nil {
		return fmt.Errorf("failed to invite drivers: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Invited %d drivers to %s\n", len(driverIDs), detail.FleetName())
	return nil
}
