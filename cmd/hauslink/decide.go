package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashureev/hauslink/internal/client"
	"github.com/spf13/cobra"
)

var decisionForCommand = map[string]string{
	"approve": client.DecisionAllow,
	"deny":    client.DecisionDeny,
}

func newDecisionCommand(name, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name + " <approval-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecision(cmd, args[0], decisionForCommand[name])
		},
	}
	cmd.Flags().StringP("message", "m", "", "reason passed back with the decision")
	return cmd
}

func runDecision(cmd *cobra.Command, approvalID, decision string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	creds, err := openStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer closeStore(creds)

	token, ok, err := creds.GetCredential(ctx)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if !ok {
		token = cfg.SeedToken
	}
	if token == "" {
		return errors.New("not logged in: run hauslink login first")
	}

	message, _ := cmd.Flags().GetString("message")
	status, err := client.New(cfg.ServerURL, nil).SubmitDecision(ctx, token, approvalID, client.Decision{
		Decision: decision,
		Message:  message,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (status %d)\n", decision, approvalID, status)
	return nil
}
