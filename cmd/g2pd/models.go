package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"g2pd/internal/g2p"
	"g2pd/pkg/types"
)

func newModelsCmd(a *app) *cobra.Command {
	var family, format string
	cmd := &cobra.Command{
		Use:     "models",
		Short:   "List the pretrained variants of a model family",
		Example: "  g2pd models --family LexiconG2PModel --format json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.newStore()
			if err != nil {
				return err
			}
			if family == "" {
				family = a.cfg.Family
			}
			lister := g2p.New(g2p.Config{Resolver: store, Family: family, Logger: &a.log})
			variants, err := lister.ListAvailableModels(cmd.Context())
			if err != nil {
				return err
			}
			return printVariants(cmd.OutOrStdout(), format, variants)
		},
	}
	cmd.Flags().StringVar(&family, "family", "", "Base model family (default from config)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json|yaml")
	return cmd
}

func printVariants(w io.Writer, format string, variants []types.Variant) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(types.ModelsResponse{Models: variants})
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(types.ModelsResponse{Models: variants})
	case "", "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tFAMILY\tBACKEND\tLOCATION")
		for _, v := range variants {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Name, v.Family, v.Backend, v.Location)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}
