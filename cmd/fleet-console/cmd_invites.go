package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// invitesCmd groups the driver side of fleet invitations
var invitesCmd = &cobra.Command{
	Use:   "invites",
	Short: "List, accept and decline a driver's fleet invitations",
}

var invitesListCmd = &cobra.Command{
	Use:   "list <driver-id>",
	Short: "Show the fleets a driver has been invited to",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvitesList,
}

var invitesAcceptCmd = &cobra.Command{
	Use:   "accept <driver-id> <fleet-id>...",
	Short: "Join the fleets a driver was invited to",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runInvitesAccept,
}

var invitesDeclineCmd = &cobra.Command{
	Use:   "decline <driver-id> <fleet-id>...",
	Short: "Decline a driver's invitations",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runInvitesDecline,
}

func init() {
	invitesCmd.AddCommand(invitesListCmd)
	invitesCmd.AddCommand(invitesAcceptCmd)
	invitesCmd.AddCommand(invitesDeclineCmd)
}

func runInvitesList(cmd *cobra.Command, args []string) error {
	driverID, err := parseID("driver", args[0])
	if err != nil {
		return err
	}

	fleets, err := client.PendingFleets(commandContext(cmd), driverID)
	if err != nil {
		return fmt.Errorf("failed to list invitations of driver %d: %w", driverID, err)
	}

	if len(fleets) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No pending invitations.")
		return nil
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tDESCRIPTION")
	for _, fleet := range fleets {
		fmt.Fprintf(writer, "%d\t%s\t%s\n", fleet.ID, fleet.Name, fleet.Description)
	}
	return writer.Flush()
}

func runInvitesAccept(cmd *cobra.Command, args []string) error {
	driverID, fleetIDs, err := parseInviteArgs(args)
	if err != nil {
		return err
	}

	if err := client.AcceptInvites(commandContext(cmd), driverID, fleetIDs); err != nil {
		return fmt.Errorf("failed to accept invitations: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Driver %d joined fleets %s\n", driverID, strings.Join(args[1:], ", "))
	return nil
}

func runInvitesDecline(cmd *cobra.Command, args []string) error {
	driverID, fleetIDs, err := parseInviteArgs(args)
	if err != nil {
		return err
	}

	if err := client.DeclineInvites(commandContext(cmd), driverID, fleetIDs); err != nil {
		return fmt.Errorf("failed to decline invitations: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Driver %d declined fleets %s\n", driverID, strings.Join(args[1:], ", "))
	return nil
}

func parseInviteArgs(args []string) (int64, []int64, error) {
	driverID, err := parseID("driver", args[0])
	if err != nil {
		return 0, nil, err
	}
	fleetIDs, err := parseIDs("fleet", args[1:])
	if err != nil {
		return 0, nil, err
	}
	return driverID, fleetIDs, nil
}
