package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"storefront/internal/catalog"
	"storefront/internal/loader"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCanonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "canon <query>",
		Short: "Print the canonical form of a view query string",
		Long: `Parses a view query string the way the storefront does (unknown keys and
malformed values are dropped) and prints the canonical query that
reproduces the same view. An empty line means the default view.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), catalog.EncodeQuery(catalog.ParseQuery(args[0])))
			return nil
		},
	}
}

type viewOptions struct {
	base       string
	collection string
	query      string
	pageSize   int
	asJSON     bool
}

func newViewCmd() *cobra.Command {
	opts := viewOptions{}
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Fetch a collection and print one page of a view",
		Long: `Loads every item of a collection from a storefront API, runs the
filter, sort and paginate pipeline locally and prints the requested page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.base, "base", "http://localhost:8080", "storefront API base URL")
	cmd.Flags().StringVarP(&opts.collection, "collection", "c", catalog.CollectionProducts, "collection to load")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "view query string, e.g. 'cat=citrus&sort=price'")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 12, "items per page")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the window as JSON")
	return cmd
}

func runView(cmd *cobra.Command, opts viewOptions) error {
	if !catalog.ValidCollection(opts.collection) {
		return fmt.Errorf("unknown collection %q", opts.collection)
	}

	l, err := loader.New(opts.base, loader.WithLogger(logger))
	if err != nil {
		return err
	}

	state := catalog.ParseQuery(opts.query)
	items, err := l.FetchAll(cmd.Context(), opts.collection, loader.Request{Limit: 100})
	if err != nil {
		logger.Warn("load failed", zap.String("collection", opts.collection), zap.String("reason", loader.ErrorLabel(err)), zap.Error(err))
		return fmt.Errorf("failed to load %s: %w", opts.collection, err)
	}

	// A shared link may point past the last page once items are gone.
	matching := len(catalog.Filter(items, state.Filters))
	if clamped := catalog.ClampPage(state, matching, opts.pageSize); clamped.Page != state.Page {
		logger.Debug("page out of range, clamped", zap.Int("requested", state.Page), zap.Int("page", clamped.Page))
		state = clamped
	}
	logger.Debug("view computed locally", zap.Int("items", len(items)), zap.String("query", catalog.EncodeQuery(state)))

	window := catalog.Apply(items, state, opts.pageSize)
	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(window)
	}
	return printWindow(cmd.OutOrStdout(), window, catalog.EncodeQuery(state))
}

type fetchOptions struct {
	base       string
	collection string
	request    loader.Request
}

func newFetchCmd() *cobra.Command {
	opts := fetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch one raw page of a collection",
		Long: `Requests a single page of a collection from a storefront API, the way
the storefront's "load more" does, and prints the normalized items as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.base, "base", "http://localhost:8080", "storefront API base URL")
	cmd.Flags().StringVarP(&opts.collection, "collection", "c", catalog.CollectionProducts, "collection to load")
	cmd.Flags().IntVar(&opts.request.Page, "page", 1, "page to fetch")
	cmd.Flags().IntVar(&opts.request.Limit, "limit", 12, "items per page")
	cmd.Flags().StringVar(&opts.request.Search, "search", "", "upstream search text")
	cmd.Flags().StringVar(&opts.request.Category, "category", "", "upstream category")
	return cmd
}

func runFetch(cmd *cobra.Command, opts fetchOptions) error {
	if !catalog.ValidCollection(opts.collection) {
		return fmt.Errorf("unknown collection %q", opts.collection)
	}

	l, err := loader.New(opts.base, loader.WithLogger(logger))
	if err != nil {
		return err
	}

	batch, err := l.Fetch(cmd.Context(), opts.collection, opts.request)
	if err != nil {
		logger.Warn("fetch failed", zap.String("collection", opts.collection), zap.String("reason", loader.ErrorLabel(err)), zap.Error(err))
		return fmt.Errorf("failed to fetch %s page %d: %w", opts.collection, opts.request.Page, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"data":  batch.Items,
		"page":  batch.Page,
		"limit": batch.Limit,
		"total": batch.Total,
	})
}

func printWindow(out io.Writer, w catalog.Window[catalog.Item], query string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tRATING\tCATEGORY\tFLAGS")
	for _, item := range w.Items {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.1f\t%s\t%s\n",
			item.ID, item.Title, item.Price, item.Rating, item.Category, flags(item))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if query == "" {
		query = "(default)"
	}
	_, err := fmt.Fprintf(out, "page %d of %d, %d matching items, query %s\n", w.Page, w.TotalPages, w.Total, query)
	return err
}

func flags(item catalog.Item) string {
	var f []string
	if item.OnSale() {
		f = append(f, "sale")
	}
	if item.IsNew {
		f = append(f, "new")
	}
	if item.IsBestSeller {
		f = append(f, "bestseller")
	}
	if !item.InStock {
		f = append(f, "out-of-stock")
	}
	return strings.Join(f, ",")
}
