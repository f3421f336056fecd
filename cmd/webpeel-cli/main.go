// Command webpeel-cli is a thin cobra wrapper around the orchestrator
// library surface for local debugging — fetch/map a URL from a
// terminal without standing up the full server, Postgres, and Redis
// stack. Grounded on 5u5urrus-PathFinder's main.go cobra/logrus CLI
// shape, kept deliberately small since this is ambient tooling, not a
// REST concern.
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"webpeel/internal/config"
	"webpeel/internal/crawler"
	"webpeel/internal/model"
	"webpeel/internal/wiring"
)

var log = logrus.StandardLogger()

var configPath string

var rootCmd = &cobra.Command{
	Use:   "webpeel-cli",
	Short: "Local debugging CLI for the WebPeel fetch/extract pipeline",
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to config file")
	rootCmd.AddCommand(fetchCmd(), mapCmd(), crawlCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func fetchCmd() *cobra.Command {
	var render, stealth, screenshot bool
	var selector string

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Run one URL through the full peel pipeline and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(configPath)
			orch, err := wiring.BuildOrchestrator(cfg)
			if err != nil {
				return err
			}

			result, err := orch.Peel(context.Background(), args[0], model.Options{
				Render:     render,
				Stealth:    stealth,
				Screenshot: screenshot,
				Selector:   selector,
			})
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "force the browser render tier")
	cmd.Flags().BoolVar(&stealth, "stealth", false, "force the stealth tier")
	cmd.Flags().BoolVar(&screenshot, "screenshot", false, "capture a screenshot")
	cmd.Flags().StringVar(&selector, "selector", "", "CSS selector to scope extraction to")
	return cmd
}

func mapCmd() *cobra.Command {
	var limit int
	var includeSubdomains bool

	cmd := &cobra.Command{
		Use:   "map <url>",
		Short: "Discover URLs under a site without fetching their content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(configPath)
			opts := crawler.MapOptions{
				URL:               args[0],
				Limit:             limit,
				IncludeSubdomains: includeSubdomains,
				SitemapMode:       crawler.SitemapInclude,
				RespectRobots:     cfg.Robots.Respect,
				UserAgent:         cfg.Scraper.UserAgent,
				Timeout:           cfg.ScraperTimeout(),
			}
			result, err := crawler.Map(context.Background(), opts)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum URLs to discover")
	cmd.Flags().BoolVar(&includeSubdomains, "include-subdomains", false, "treat subdomains as in-scope")
	return cmd
}

func crawlCmd() *cobra.Command {
	var limit, concurrency int

	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Discover and fetch every URL under a site, printing each result as it completes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(configPath)
			orch, err := wiring.BuildOrchestrator(cfg)
			if err != nil {
				return err
			}

			mapResult, err := crawler.Map(context.Background(), crawler.MapOptions{
				URL:           args[0],
				Limit:         limit,
				SitemapMode:   crawler.SitemapInclude,
				RespectRobots: cfg.Robots.Respect,
				UserAgent:     cfg.Scraper.UserAgent,
				Timeout:       cfg.ScraperTimeout(),
			})
			if err != nil {
				return err
			}

			urls := []string{args[0]}
			for _, l := range mapResult.Links {
				if l.URL != args[0] {
					urls = append(urls, l.URL)
				}
			}

			log.Infof("discovered %d urls, fetching sequentially (--concurrency=%d is informational only)", len(urls), concurrency)
			for _, u := range urls {
				result, err := orch.Peel(context.Background(), u, model.Options{})
				if err != nil {
					log.WithError(err).Warnf("fetch failed: %s", u)
					continue
				}
				if err := printJSON(result); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum URLs to discover")
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "informational only; crawl runs sequentially in the CLI")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
