package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/run-bigpig/consilium/internal/config"
	"github.com/run-bigpig/consilium/internal/consensus"
	"github.com/run-bigpig/consilium/internal/models"
)

func newAskCmd() *cobra.Command {
	var (
		rounds    int
		protocol  string
		roles     string
		topology  string
		moderator string
		showLog   bool
	)
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Run one expert discussion from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			_, runner, stop := buildRuntime(cfg)
			defer stop()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			res, err := runner.Run(ctx, consensus.DiscussionRequest{
				Question:  strings.Join(args, " "),
				Rounds:    rounds,
				Protocol:  models.DecisionProtocol(protocol),
				Roles:     models.RoleAssignment(roles),
				Topology:  models.Topology(topology),
				Moderator: moderator,
			})
			if err != nil && !errors.Is(err, consensus.ErrNoModels) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.FinalAnswer)
			if showLog {
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), res.LogMarkdown)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&rounds, "rounds", 2, "discussion rounds after initial analysis")
	cmd.Flags().StringVar(&protocol, "protocol", "consensus", "decision protocol")
	cmd.Flags().StringVar(&roles, "roles", "balanced", "role assignment scheme")
	cmd.Flags().StringVar(&topology, "topology", "full_mesh", "communication topology")
	cmd.Flags().StringVar(&moderator, "moderator", "", "lead analyst model key")
	cmd.Flags().BoolVar(&showLog, "log", false, "print the full discussion log")
	return cmd
}
