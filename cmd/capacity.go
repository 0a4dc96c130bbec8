package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"dental-booking/cmd/bootstrap"
	"dental-booking/internal/usecase"

	"github.com/spf13/cobra"
)

func capacityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Manage per-weekday booking capacity",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "set <day> <capacity>",
		Short:   "Set the booking limit for a weekday (0 closes the day)",
		Example: "  dental-booking capacity set Friday 0",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			capacity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("capacity must be an integer: %q", args[1])
			}

			return withCapacityUsecase(func(u usecase.CapacityUsecase) error {
				rule, err := u.SetCapacity(context.Background(), args[0], capacity)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s capacity set to %d\n", rule.DayName, rule.Capacity)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the effective capacity of each weekday",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCapacityUsecase(func(u usecase.CapacityUsecase) error {
				list, err := u.GetCapacity(context.Background())
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "DAY\tCAPACITY\tSOURCE")
				for _, d := range list.Days {
					source := "rule"
					if d.IsDefault {
						source = "default"
					}
					fmt.Fprintf(tw, "%s\t%d\t%s\n", d.DayName, d.Capacity, source)
				}
				return tw.Flush()
			})
		},
	})

	return cmd
}

func withCapacityUsecase(fn func(u usecase.CapacityUsecase) error) error {
	cfg, log, err := bootstrap.Load()
	if err != nil {
		return err
	}

	db, err := bootstrap.OpenDatabase(cfg, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	return fn(bootstrap.NewCapacityUsecase(cfg, log, db))
}
