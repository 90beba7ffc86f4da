package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"finsignal/internal/utils"

	"github.com/spf13/cobra"
)

var slotsAt string

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Print the publish slots offered at a given time",
	Long: `Print the publish slots offered at a given time.

Examples:
  finsignal slots
  finsignal slots --at 2025-03-12T23:45:00`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		if slotsAt != "" {
			at, err := utils.ParseScheduledTime(slotsAt)
			if err != nil {
				return err
			}
			now = at
		}
		slots := utils.GenerateSlots(now)
		if len(slots) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no slots available")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "UTC\tLABEL")
		for _, s := range slots {
			fmt.Fprintf(w, "%s\t%s\n", s.ISO, s.Label)
		}
		return w.Flush()
	},
}

func init() {
	slotsCmd.Flags().StringVar(&slotsAt, "at", "", "UTC time to plan from (ISO-8601, default now)")
}
