package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/app"
	"github.com/hyperjump/tansaku/internal/cli"
	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/internal/content"
	"github.com/hyperjump/tansaku/internal/mcp"
	"github.com/hyperjump/tansaku/internal/models"
)

// searchFlags holds the search command's flags.
type searchFlags struct {
	limit         int
	category      string
	difficulty    string
	minSimilarity float64
	noExpand      bool
	output        string
}

func newSearchCmd(g *globals) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search content by meaning",
		Long: `Search content by meaning.

Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.
--min-similarity defaults to search.similarity_threshold from the config.`,
		Example: `  tansaku search machine learning
  tansaku search --category Technology --limit 5 "neural networks"
  tansaku search --no-expand --output json sourdough`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queryStr := buildSearchQuery(args)
			if queryStr == "" {
				return errors.New("query cannot be empty")
			}
			format, err := cli.ParseFormat(f.output)
			if err != nil {
				return err
			}
			query := f.query(queryStr, cmd.Flags().Changed("limit"), cmd.Flags().Changed("min-similarity"), g.defaultThreshold())
			return g.withBackend(cmd.Context(), func(b backend) error {
				resp, err := b.Search(cmd.Context(), query)
				if err != nil {
					return fmt.Errorf("search failed: %w", err)
				}
				return cli.WriteSearchResults(cmd.OutOrStdout(), resp, format)
			})
		},
	}
	cmd.Flags().IntVar(&f.limit, "limit", 10, "maximum number of results")
	cmd.Flags().StringVar(&f.category, "category", "", "only return this category")
	cmd.Flags().StringVar(&f.difficulty, "difficulty", "", "only return this difficulty (Beginner, Intermediate, Advanced)")
	cmd.Flags().Float64Var(&f.minSimilarity, "min-similarity", 0, "minimum similarity score (default from config)")
	cmd.Flags().BoolVar(&f.noExpand, "no-expand", false, "search the query alone, without generated variants")
	cmd.Flags().StringVar(&f.output, "output", "text", "output format: text, compact, or json")
	return cmd
}

// query builds the search request. Unset flags fall back to the server-side
// default limit and the configured similarity threshold.
func (f *searchFlags) query(q string, limitSet, minSet bool, threshold float64) *models.SearchQuery {
	query := &models.SearchQuery{
		Query:            q,
		CategoryFilter:   f.category,
		DifficultyFilter: f.difficulty,
		MinSimilarity:    threshold,
		DisableExpansion: f.noExpand,
	}
	if limitSet {
		query.MaxResults = models.IntPtr(f.limit)
	}
	if minSet {
		query.MinSimilarity = f.minSimilarity
	}
	return query
}

// defaultThreshold is search.similarity_threshold from the config, or the
// built-in default when the config cannot be loaded.
func (g *globals) defaultThreshold() float64 {
	cfg, _, err := loadConfig(g.configPath)
	if err != nil || cfg == nil {
		return config.Default().Search.SimilarityThreshold
	}
	return cfg.Search.SimilarityThreshold
}

func newAddCmd(g *globals) *cobra.Command {
	var (
		in          models.ContentInput
		tags        string
		contentFile string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a content item",
		Example: `  tansaku add --title "Go basics" --content "Goroutines..." --category Technology \
    --tags go,concurrency --difficulty Beginner --read-time 5 --author Ann`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if contentFile != "" {
				b, err := os.ReadFile(contentFile)
				if err != nil {
					return fmt.Errorf("read content file: %w", err)
				}
				in.Content = string(b)
			}
			in.Tags = content.ParseTags(tags)
			return g.withBackend(cmd.Context(), func(b backend) error {
				id, err := b.AddContent(cmd.Context(), &in)
				if err != nil {
					return fmt.Errorf("add failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Content added: %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "title")
	cmd.Flags().StringVar(&in.Content, "content", "", "body text")
	cmd.Flags().StringVar(&contentFile, "content-file", "", "read the body from a file")
	cmd.Flags().StringVar(&in.Category, "category", "", "category")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	cmd.Flags().StringVar(&in.Difficulty, "difficulty", models.DifficultyBeginner, "Beginner, Intermediate, or Advanced")
	cmd.Flags().IntVar(&in.ReadTime, "read-time", 0, "read time in minutes")
	cmd.Flags().StringVar(&in.Author, "author", "", "author")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("read-time")
	return cmd
}

func newGetCmd(g *globals) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseFormat(output)
			if err != nil {
				return err
			}
			return g.withBackend(cmd.Context(), func(b backend) error {
				item, err := b.GetContent(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("get failed: %w", err)
				}
				if format == cli.OutputJSON {
					return cli.WriteJSON(cmd.OutOrStdout(), item)
				}
				cli.WriteContent(cmd.OutOrStdout(), item)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&output, "output", "text", "output format: text or json")
	return cmd
}

func newSimilarCmd(g *globals) *cobra.Command {
	var (
		limit  int
		output string
	)
	cmd := &cobra.Command{
		Use:   "similar <id>",
		Short: "Find items similar to a content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseFormat(output)
			if err != nil {
				return err
			}
			return g.withBackend(cmd.Context(), func(b backend) error {
				results, err := b.Similar(cmd.Context(), args[0], limit)
				if err != nil {
					return fmt.Errorf("similar failed: %w", err)
				}
				if format == cli.OutputJSON {
					return cli.WriteJSON(cmd.OutOrStdout(), results)
				}
				cli.WriteSimilar(cmd.OutOrStdout(), args[0], results)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", content.DefaultSimilarResults, "maximum number of results")
	cmd.Flags().StringVar(&output, "output", "text", "output format: text or json")
	return cmd
}

func newStatsCmd(g *globals) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show content and search statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseFormat(output)
			if err != nil {
				return err
			}
			return g.withBackend(cmd.Context(), func(b backend) error {
				st, err := b.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("stats failed: %w", err)
				}
				if format == cli.OutputJSON {
					return cli.WriteJSON(cmd.OutOrStdout(), st)
				}
				cli.WriteStats(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&output, "output", "text", "output format: text or json")
	return cmd
}

func newSuggestCmd(g *globals) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "suggest <query...>",
		Short: "Suggest related queries and classify intent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queryStr := buildSearchQuery(args)
			if queryStr == "" {
				return errors.New("query cannot be empty")
			}
			format, err := cli.ParseFormat(output)
			if err != nil {
				return err
			}
			return g.withBackend(cmd.Context(), func(b backend) error {
				s, err := b.Suggest(cmd.Context(), queryStr)
				if err != nil {
					return fmt.Errorf("suggest failed: %w", err)
				}
				if format == cli.OutputJSON {
					return cli.WriteJSON(cmd.OutOrStdout(), s)
				}
				cli.WriteSuggestions(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&output, "output", "text", "output format: text or json")
	return cmd
}

func newImportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import a JSON array of content items",
		Long: `Import a JSON array of content items into the store.

Items with an id are upserted under it. Items without one get an id derived from
the file path, position and title, so importing the same file again updates in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.serverURL != "" {
				return errors.New("import opens the store directly; run it without --server")
			}
			ctx := cmd.Context()
			a, logger, err := g.openApp(ctx)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer func() {
				if err := a.Close(context.Background()); err != nil {
					logger.Warn("close failed", zap.Error(err))
				}
			}()
			res, err := a.Importer.ImportFile(ctx, args[0])
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d item(s) from %s, %d failed\n", res.Imported, res.Source, res.Failed)
			for _, e := range res.Errors {
				fmt.Fprintf(out, "  item %d %s: %s\n", e.Index, e.ID, e.Error)
			}
			return nil
		},
	}
}

func newMCPCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve content search tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, logger, err := g.openApp(ctx)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer func() {
				if err := a.Close(context.Background()); err != nil {
					logger.Warn("close failed", zap.Error(err))
				}
			}()
			return mcp.NewServer(a, logger.Named("mcp")).Serve(ctx)
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tansaku version %s\n", strings.TrimSpace(app.Version))
		},
	}
}
