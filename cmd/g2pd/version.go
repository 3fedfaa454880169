package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"g2pd/internal/manager"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			llama := "no"
			if manager.LlamaBuilt() {
				llama = "yes"
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "g2pd %s (llama: %s)\n", version, llama)
			return err
		},
	}
}
