package main

import (
	"encoding/json"

	"github.com/Abraxas-365/docingest/logger"
	"github.com/Abraxas-365/docingest/pipeline"
	"github.com/spf13/cobra"
)

func newSplitCommand(a *app) *cobra.Command {
	var flags chunkFlags
	cmd := &cobra.Command{
		Use:   "split DIR",
		Short: "Print the chunks of every PDF in DIR as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(cmd, a.cfg); err != nil {
				return err
			}
			ctx := cmd.Context()

			pages, err := pipeline.LoadPDFFiles(ctx, args[0], a.cfg.LoadOptions()...)
			if err != nil {
				return err
			}
			chunks, err := pipeline.TextSplit(pipeline.FilterToMinimalDocs(pages), a.cfg.SplitterOptions()...)
			if err != nil {
				return err
			}
			logger.FromContext(ctx).Info("Split documents", "pages", len(pages), "chunks", len(chunks))

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, chunk := range chunks {
				if err := enc.Encode(chunk); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
