package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	apiKey       string
	settingsPath string
	worklistPath string
	outputDir    string
	indexPath    string
	templatePath string
	providerName string
	delay        time.Duration
	debugMode    bool
)

// errRunFailed signals that the run completed but at least one URL failed
var errRunFailed = errors.New("one or more URLs failed")

var rootCmd = &cobra.Command{
	Use:   "docs-ingest",
	Short: "Scrape a list of URLs into markdown documentation",
	Long: `Fetches every URL in the worklist through a scraping provider, stores each
page as a markdown file with frontmatter, skips URLs scraped by earlier runs
and regenerates the llms.txt index over all stored files.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		SetDebugMode(debugMode)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Println("🚀 Starting documentation scraper...")

		cfg, err := NewConfig(buildOverrides(cmd))
		if err != nil {
			return err
		}

		scraper, err := NewScraper(cfg)
		if err != nil {
			return err
		}
		debugLog("using provider %s", scraper.Name())

		store := NewFileStore(cfg.Settings)
		indexer, err := NewIndexGenerator(cfg, store)
		if err != nil {
			return configErrorf("%v", err)
		}

		processor := NewDocumentProcessor(cfg.Settings, store, NewContentFetcher(scraper))
		results, err := processor.Run(cmd.Context())
		if err != nil {
			return err
		}

		files, err := store.ListRecordFiles()
		if err != nil {
			log.Printf("Warning: %v", err)
		}
		PrintSummary(cmd.OutOrStdout(), results, len(files), store.OutputDir())

		regenerateIndex(indexer, cfg.Settings.IndexFile)

		if results.Failed > 0 {
			return errRunFailed
		}
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <url>...",
	Short: "Append URLs to the worklist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := NewConfig(buildOverrides(cmd))
		if err != nil {
			return err
		}

		added, err := AddURLs(NewFileStore(cfg.Settings), cfg.Settings.WorklistFile, args)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d URL(s) to %s\n", added, cfg.Settings.WorklistFile)
		return nil
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Regenerate the index file without scraping",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := NewConfig(buildOverrides(cmd))
		if err != nil {
			return err
		}

		indexer, err := NewIndexGenerator(cfg, NewFileStore(cfg.Settings))
		if err != nil {
			return configErrorf("%v", err)
		}

		written, err := indexer.Generate(time.Now())
		if err != nil {
			return err
		}
		if !written {
			fmt.Fprintf(cmd.OutOrStdout(), "No markdown files in %s, index not written\n", cfg.Settings.OutputDirectory)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📝 Generated %s\n", cfg.Settings.IndexFile)
		return nil
	},
}

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List markdown files that share the same source URL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := NewConfig(buildOverrides(cmd))
		if err != nil {
			return err
		}

		duplicates, err := NewFileStore(cfg.Settings).FindDuplicateURLs()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(duplicates) == 0 {
			fmt.Fprintln(out, "No duplicate URLs found")
			return nil
		}

		urls := make([]string, 0, len(duplicates))
		for url := range duplicates {
			urls = append(urls, url)
		}
		sort.Strings(urls)

		for _, url := range urls {
			fmt.Fprintf(out, "\n%s\n", url)
			for _, name := range duplicates[url] {
				fmt.Fprintf(out, "  %s\n", name)
			}
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&apiKey, "api-key", "", "Scraping provider API key (default $"+apiKeyEnv+")")
	flags.StringVar(&settingsPath, "settings", "", "Path to settings file (default "+getConfigPath("settings.yaml")+")")
	flags.StringVar(&worklistPath, "urls", "", "Path to the JSON worklist of URLs")
	flags.StringVar(&outputDir, "output", "", "Directory for the markdown files")
	flags.StringVar(&indexPath, "index", "", "Path of the generated index file")
	flags.StringVar(&templatePath, "template", "", "Path to a custom index template")
	flags.StringVar(&providerName, "provider", "", "Scraping provider: firecrawl or direct")
	flags.DurationVar(&delay, "delay", 0, "Pause between requests")
	flags.BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(addCmd, indexCmd, duplicatesCmd)
}

// buildOverrides collects the flags that were set explicitly
func buildOverrides(cmd *cobra.Command) *ConfigOverrides {
	overrides := &ConfigOverrides{}
	changed := cmd.Flags().Changed

	if changed("api-key") {
		overrides.APIKey = &apiKey
	}
	if changed("settings") {
		overrides.SettingsPath = &settingsPath
	}
	if changed("urls") {
		overrides.WorklistPath = &worklistPath
	}
	if changed("output") {
		overrides.OutputDirectory = &outputDir
	}
	if changed("index") {
		overrides.IndexPath = &indexPath
	}
	if changed("template") {
		overrides.TemplatePath = &templatePath
	}
	if changed("provider") {
		overrides.Provider = &providerName
	}
	if changed("delay") {
		overrides.Delay = &delay
	}
	return overrides
}

func regenerateIndex(indexer *IndexGenerator, path string) {
	written, err := indexer.Generate(time.Now())
	if err != nil {
		log.Printf("✗ Error generating %s: %v", path, err)
		return
	}
	if written {
		log.Printf("📝 Generated %s index file", path)
	}
}

// reportError prints err with the label of its error class
func reportError(err error) {
	var (
		cfgErr *ConfigurationError
		valErr *ValidationError
	)
	switch {
	case errors.As(err, &cfgErr):
		log.Printf("⚙️  Configuration Error: %v", cfgErr)
	case errors.As(err, &valErr):
		log.Printf("📋 Validation Error: %v", valErr)
	default:
		log.Printf("💥 Unexpected Error: %v", err)
	}
}

// exitCode maps the outcome of a command to the process exit status
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if !errors.Is(err, errRunFailed) {
		reportError(err)
	}
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := exitCode(rootCmd.ExecuteContext(ctx))
	stop()
	os.Exit(code)
}
