package main

import (
	"encoding/json"
	"errors"

	"github.com/Abraxas-365/docingest/adapters/inmemory"
	"github.com/Abraxas-365/docingest/adapters/pgvectore"
	"github.com/Abraxas-365/docingest/document"
	"github.com/Abraxas-365/docingest/embedding"
	"github.com/Abraxas-365/docingest/logger"
	"github.com/Abraxas-365/docingest/pipeline"
	"github.com/Abraxas-365/docingest/vectorstore"
	"github.com/spf13/cobra"
)

const embeddingCacheSize = 4096

var errNoDatabase = errors.New("no database URL configured: pass --database-url, or --query to search a throwaway in-memory index")

type queryResult struct {
	Query   string                 `json:"query"`
	Results []vectorstore.Document `json:"results"`
}

func newIndexCommand(a *app) *cobra.Command {
	var (
		chunk       chunkFlags
		model       embedFlags
		databaseURL string
		table       string
		recreate    bool
		queries     []string
	)
	cmd := &cobra.Command{
		Use:   "index DIR",
		Short: "Split, embed and store every PDF in DIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := chunk.apply(cmd, a.cfg); err != nil {
				return err
			}
			model.apply(cmd, a.cfg)
			if cmd.Flags().Changed("database-url") {
				a.cfg.Store.DatabaseURL = databaseURL
			}
			if cmd.Flags().Changed("table") {
				a.cfg.Store.Table = table
			}
			if a.cfg.Store.DatabaseURL == "" && len(queries) == 0 {
				return errNoDatabase
			}
			ctx := cmd.Context()
			log := logger.FromContext(ctx)

			hf, err := pipeline.DownloadHuggingFaceEmbeddings(ctx, a.cfg.EmbeddingOptions()...)
			if err != nil {
				return err
			}
			embedder, err := embedding.NewCachedEmbedder(hf, embeddingCacheSize)
			if err != nil {
				return err
			}

			var store vectorstore.Store
			if a.cfg.Store.DatabaseURL == "" {
				log.Warn("No database URL configured, chunks are kept in memory for the queries only")
				store = inmemory.NewInMemoryStore()
			} else {
				dimension := a.cfg.Store.Dimension
				if hf.Dimensions() > 0 {
					dimension = hf.Dimensions()
				}
				pg, err := pgvectore.NewPGVectorStore(ctx, a.cfg.Store.DatabaseURL, pgvectore.Options{
					TableName: a.cfg.Store.Table,
					Dimension: dimension,
				})
				if err != nil {
					return err
				}
				defer pg.Close()
				if err := pg.InitDB(ctx, recreate); err != nil {
					return err
				}
				store = pg
			}

			splitter, err := document.NewRecursiveCharacterSplitter(a.cfg.SplitterOptions()...)
			if err != nil {
				return err
			}
			p, err := pipeline.New(embedder, store, splitter, pipeline.WithLoadOptions(a.cfg.LoadOptions()...))
			if err != nil {
				return err
			}

			stats, err := p.IngestDir(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if err := enc.Encode(stats); err != nil {
				return err
			}

			for _, query := range queries {
				results, err := p.SimilaritySearch(ctx, query, 0, nil)
				if err != nil {
					return err
				}
				if err := enc.Encode(queryResult{Query: query, Results: results}); err != nil {
					return err
				}
			}
			return nil
		},
	}
	chunk.register(cmd)
	model.register(cmd)
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (pgvector); required unless --query is given")
	cmd.Flags().StringVar(&table, "table", "", "Table holding the chunks")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "Drop and recreate the table first")
	cmd.Flags().StringArrayVar(&queries, "query", nil, "Search the index after ingesting and print the top matches (repeatable)")
	return cmd
}
