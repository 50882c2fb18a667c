package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dealscout/backend/config"
	"github.com/dealscout/backend/internal/app"
	"github.com/dealscout/backend/internal/domain"
	"github.com/spf13/cobra"
)

// servicesFunc builds the use cases a command runs against
type servicesFunc func(ctx context.Context) (*app.Services, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(loadServices).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadServices wires services from the same configuration the server uses
func loadServices(ctx context.Context) (*app.Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, logger)
}

func newRootCmd(services servicesFunc) *cobra.Command {
	root := &cobra.Command{
		Use:          "dealscout",
		Short:        "Look up products, cheaper offers and similar products",
		SilenceUsage: true,
	}

	root.AddCommand(
		newProductCmd(services),
		newCompareCmd(services),
		newSimilarCmd(services),
		newExtractPriceCmd(services),
	)
	return root
}

func newProductCmd(services servicesFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "product <url>",
		Short: "Scrape a product page and print its normalized record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := services(cmd.Context())
			if err != nil {
				return err
			}
			record, err := svc.Products.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), record)
		},
	}
}

func newCompareCmd(services servicesFunc) *cobra.Command {
	var req domain.ComparisonRequest

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Find offers cheaper than the given price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := services(cmd.Context())
			if err != nil {
				return err
			}
			offers, err := svc.Comparison.ComparePrice(cmd.Context(), &req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"offers": offers})
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "product title")
	cmd.Flags().Float64Var(&req.Price, "price", 0, "current product price")
	cmd.Flags().StringVar(&req.URL, "url", "", "product page URL")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newSimilarCmd(services servicesFunc) *cobra.Command {
	var req domain.SimilarRequest

	cmd := &cobra.Command{
		Use:   "similar <url>",
		Short: "Find products similar to the product at url",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.URL = args[0]
			svc, err := services(cmd.Context())
			if err != nil {
				return err
			}
			products, err := svc.Similar.FindSimilar(cmd.Context(), &req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"similar_products": products})
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "product title")
	cmd.Flags().StringVar(&req.Description, "description", "", "product description")
	cmd.Flags().StringVar(&req.Color, "color", "", "product color")
	cmd.Flags().StringVar(&req.Price, "price", "", "product price")
	return cmd
}

func newExtractPriceCmd(services servicesFunc) *cobra.Command {
	var pageURL string

	cmd := &cobra.Command{
		Use:   "extract-price",
		Short: "Read page content from stdin and print the extracted price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read content: %w", err)
			}
			svc, err := services(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Prices.ExtractPrice(cmd.Context(), string(content), pageURL)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&pageURL, "url", "", "URL the content was taken from")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
