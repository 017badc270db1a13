package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ashureev/hauslink/internal/choices"
	"github.com/spf13/cobra"
)

func newChoicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "choices",
		Short: "Extract [key] label choices from prompt text on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			found := choices.Parse(string(text))

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if found == nil {
					return enc.Encode([]any{})
				}
				return enc.Encode(found)
			}
			for _, c := range found {
				fmt.Fprintf(out, "%s\t%s\n", c.Key, c.Label)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print choices as JSON")
	return cmd
}
