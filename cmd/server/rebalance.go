package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"finsignal/internal/utils"

	"github.com/spf13/cobra"
)

var rebalanceApply bool

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance TAG=WEIGHT...",
	Short: "Rescale a topic mix so it totals 100",
	Long: `Rescale a topic mix so it totals 100.

Examples:
  finsignal rebalance AML=33 KYC=33 Fraud=33
  finsignal rebalance --apply AML=50 KYC=25 Fraud=25   # also store the result`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		weights, err := utils.ParseTopicWeights(args)
		if err != nil {
			return err
		}
		balanced, err := utils.Rebalance(weights)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TOPIC\tWEIGHT")
		for _, tw := range balanced {
			fmt.Fprintf(w, "%s\t%d\n", tw.Tag, tw.Weight)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if !rebalanceApply {
			return nil
		}
		return applyWeights(weights)
	},
}

func init() {
	rebalanceCmd.Flags().BoolVar(&rebalanceApply, "apply", false, "Persist the rebalanced weights")
}

func applyWeights(weights []utils.TopicWeight) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	gdb, store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB(gdb, log)
	strategy, err := newStrategyService(store, cfg, log)
	if err != nil {
		return err
	}
	_, err = strategy.SetWeights(ctx, weights)
	return err
}
