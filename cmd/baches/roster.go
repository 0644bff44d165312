package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errRosterUnavailable = errors.New("workers and vehicles are only available with the remote backend")

func newWorkersCmd(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "workers [query]",
		Short: "List field workers, optionally filtered by name or email",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.roster == nil {
				return errRosterUnavailable
			}
			sess, err := a.session()
			if err != nil {
				return err
			}
			workers, err := a.roster.Workers(cmd.Context(), sess, query(search, args))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, renderWorkers(workers))
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "q", "", "filter by name or email")
	return cmd
}

func newVehiclesCmd(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "vehicles [query]",
		Short: "List fleet vehicles, optionally filtered by plate or brand",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.roster == nil {
				return errRosterUnavailable
			}
			sess, err := a.session()
			if err != nil {
				return err
			}
			vehicles, err := a.roster.Vehicles(cmd.Context(), sess, query(search, args))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, renderVehicles(vehicles))
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "q", "", "filter by plate or brand")
	return cmd
}

// query prefers --search over the positional argument.
func query(search string, args []string) string {
	if search != "" || len(args) == 0 {
		return search
	}
	return args[0]
}
