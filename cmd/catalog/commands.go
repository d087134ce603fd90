package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-suggest/internal/app"
	"github.com/p-n-ai/pai-suggest/internal/catalog"
	"github.com/p-n-ai/pai-suggest/internal/platform/config"
	"github.com/p-n-ai/pai-suggest/internal/platform/database"
	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

// store is the catalog surface the commands operate on.
type store interface {
	catalog.Importer
	catalog.EmbeddingStore
	ListWithEmbeddings(ctx context.Context) ([]recommend.ContentItem, error)
	Stats(ctx context.Context) (catalog.Stats, error)
}

// runtime opens the command dependencies on demand so that --help and
// --dry-run never touch the network.
type runtime struct {
	openStore    func(ctx context.Context) (store, func(), error)
	openEmbedder func() (recommend.Embedder, error)
}

func postgresRuntime(cfg *config.Config) *runtime {
	return &runtime{
		openStore: func(ctx context.Context) (store, func(), error) {
			db, err := database.Open(ctx, cfg.Database)
			if err != nil {
				return nil, nil, fmt.Errorf("open database: %w", err)
			}
			return catalog.NewPostgresCatalog(db.Pool), db.Close, nil
		},
		openEmbedder: func() (recommend.Embedder, error) {
			if !cfg.HasEmbeddingProvider() {
				return nil, errors.New("no embedding provider configured")
			}
			return app.NewEmbedder(cfg.Embedding), nil
		},
	}
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Manage the microcontent catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newImportCmd(rt))
	root.AddCommand(newBackfillCmd(rt))
	root.AddCommand(newStatsCmd(rt))
	root.AddCommand(newExportCmd(rt))
	return root
}

func newImportCmd(rt *runtime) *cobra.Command {
	var embed, dryRun bool

	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Validate and import YAML, JSON or XLSX microcontents",
		Long: `Import reads a catalog file, or every catalog file under a directory,
validates each record and upserts it into the catalog database.`,
		Example: `  catalog import ./content
  catalog import items.xlsx --embed
  catalog import items.json --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadRecords(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var target catalog.Importer = catalog.NewMemoryCatalog()
			if !dryRun {
				s, closeStore, err := rt.openStore(ctx)
				if err != nil {
					return err
				}
				defer closeStore()
				target = s
			}

			var embedder recommend.Embedder
			if embed && !dryRun {
				if embedder, err = rt.openEmbedder(); err != nil {
					return err
				}
			}

			result, err := catalog.Import(ctx, target, records, embedder)
			if err != nil {
				return err
			}

			verb := "Imported"
			if dryRun {
				verb = "Validated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d of %d records (%d errors)\n",
				verb, result.Imported, result.Total, result.Errors)
			return nil
		},
	}

	cmd.Flags().BoolVar(&embed, "embed", false, "Compute embeddings for records that have none")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate records without storing them")
	return cmd
}

func newBackfillCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Compute embeddings for active items that lack one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			embedder, err := rt.openEmbedder()
			if err != nil {
				return err
			}
			s, closeStore, err := rt.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := catalog.Backfill(ctx, s, embedder)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d of %d items (%d errors)\n",
				result.Updated, result.Total, result.Errors)
			return nil
		},
	}
}

func newStatsCmd(rt *runtime) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show embedding coverage of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeStore, err := rt.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			stats, err := s.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), stats, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

func newExportCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export active items to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeStore, err := rt.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			items, err := s.ListWithEmbeddings(cmd.Context())
			if err != nil {
				return err
			}

			records := make([]catalog.Record, 0, len(items))
			for _, item := range items {
				records = append(records, catalog.FromItem(item))
			}
			if err := catalog.WriteWorkbook(args[0], records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d items to %s\n", len(records), args[0])
			return nil
		},
	}
}

// loadRecords reads a single file as is, or every valid record under a directory.
func loadRecords(path string) ([]catalog.Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if info.IsDir() {
		return catalog.LoadDir(path)
	}
	return catalog.LoadFile(path)
}

func printStats(w io.Writer, stats catalog.Stats, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprintf(w, "Total items:        %d\n", stats.Total)
	fmt.Fprintf(w, "With embedding:     %d\n", stats.WithEmbedding)
	fmt.Fprintf(w, "Without embedding:  %d\n", stats.WithoutEmbedding)
	fmt.Fprintf(w, "Completion:         %d%%\n", stats.CompletionPercentage)
	return nil
}
