package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"g2pd/pkg/types"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		req        types.ConvertRequest
		numWorkers int
	)
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Attach phoneme predictions to a JSON Lines manifest",
		Example: "  g2pd convert --manifest test.json --output test_pred.json --variant cmudict\n" +
			"  g2pd convert --manifest test.json   # print predictions",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if cmd.Flags().Changed("num-workers") {
				req.NumWorkers = &numWorkers
			}
			return a.runConvert(ctx, cmd, req)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Manifest, "manifest", "", "Input JSON Lines manifest (required)")
	f.StringVar(&req.Output, "output", "", "Output manifest; predictions are printed when empty")
	f.StringVar(&req.Model, "variant", "", "Variant name (defaults to default_variant)")
	f.StringVar(&req.GraphemeField, "grapheme-field", "", "Record field holding the graphemes (default from config)")
	f.StringVar(&req.PredField, "pred-field", "", "Record field receiving the prediction (default from config)")
	f.IntVar(&req.BatchSize, "batch-size", 0, "Inference batch size (default from config)")
	f.IntVar(&numWorkers, "num-workers", 0, "Inference workers; 0 runs batches inline (default from config)")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

func (a *app) runConvert(ctx context.Context, cmd *cobra.Command, req types.ConvertRequest) error {
	store, err := a.newStore()
	if err != nil {
		return err
	}
	mgr := a.newManager(store)
	defer mgr.Close()

	req.ReturnPredictions = req.Output == ""
	resp, err := mgr.Convert(ctx, req)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if resp.Output == "" {
		for _, p := range resp.Predictions {
			fmt.Fprintln(out, p)
		}
		return nil
	}
	fmt.Fprintf(out, "converted %d records with %s -> %s\n", resp.Records, resp.Model, resp.Output)
	return nil
}
