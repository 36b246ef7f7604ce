package main

import (
	"encoding/json"

	"github.com/Abraxas-365/docingest/pipeline"
	"github.com/spf13/cobra"
)

type embedResult struct {
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
	Vectors    int    `json:"vectors"`
}

func newEmbedCommand(a *app) *cobra.Command {
	var flags embedFlags
	cmd := &cobra.Command{
		Use:   "embed TEXT...",
		Short: "Embed texts with the sentence-embedding model and report the vector size",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, a.cfg)
			ctx := cmd.Context()

			embedder, err := pipeline.DownloadHuggingFaceEmbeddings(ctx, a.cfg.EmbeddingOptions()...)
			if err != nil {
				return err
			}
			vectors, err := embedder.EmbedDocuments(ctx, args)
			if err != nil {
				return err
			}

			result := embedResult{Model: embedder.Model(), Vectors: len(vectors)}
			if len(vectors) > 0 {
				result.Dimensions = len(vectors[0])
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
		},
	}
	flags.register(cmd)
	return cmd
}
