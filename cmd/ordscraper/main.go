// cmd/ordscraper/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valpere/ORDScrapexter/internal/browser"
	"github.com/valpere/ORDScrapexter/internal/config"
	"github.com/valpere/ORDScrapexter/internal/errors"
	"github.com/valpere/ORDScrapexter/internal/monitoring"
	"github.com/valpere/ORDScrapexter/internal/output"
	"github.com/valpere/ORDScrapexter/internal/scraper"
	"github.com/valpere/ORDScrapexter/internal/utils"
	"gopkg.in/yaml.v3"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Global error service instance
var errorService = errors.NewService()

// runScraper loads a configuration and runs the scrape it describes
func runScraper(configFile string) {
	verbose := hasFlag("-v") || hasFlag("--verbose")
	errorService = errorService.WithVerbose(verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := executeScrapingOperation(ctx, configFile, verbose, os.Stdout); err != nil {
		fmt.Fprint(os.Stderr, errorService.FormatErrorForCLI(err))
		os.Exit(errorService.GetExitCode(err))
	}
}

// validateConfig checks a configuration file and reports the result
func validateConfig(configFile string) {
	verbose := hasFlag("-v") || hasFlag("--verbose")
	errorService = errorService.WithVerbose(verbose)

	if err := executeValidation(configFile, verbose, os.Stdout); err != nil {
		fmt.Fprint(os.Stderr, errorService.FormatErrorForCLI(err))
		os.Exit(errorService.GetExitCode(err))
	}

	fmt.Printf("✓ Configuration file '%s' is valid\n", configFile)
}

// generateTemplate renders a configuration template as YAML
func generateTemplate(args []string) (string, error) {
	templateType := "all"
	if len(args) > 1 && args[0] == "--type" {
		templateType = args[1]
	}

	template := config.GenerateTemplate(templateType)

	yamlData, err := yaml.Marshal(template)
	if err != nil {
		return "", fmt.Errorf("failed to marshal template to YAML: %w", err)
	}

	return string(yamlData), nil
}

// executeScrapingOperation performs the scrape and persists its results
func executeScrapingOperation(ctx context.Context, configFile string, verbose bool, out io.Writer) error {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := utils.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid config log_level: %w", err)
	}
	if verbose {
		level = utils.DebugLevel
	}
	utils.SetLevel(level)
	logger := utils.NewComponentLogger("cli")

	if verbose {
		fmt.Fprintf(out, "Configuration loaded: %s\n", cfg.Name)
		fmt.Fprintf(out, "Target URL: %s\n", cfg.BaseURL)
		fmt.Fprintf(out, "Mode: %s\n", cfg.Mode)
	}

	outputManager, err := output.NewManager(cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to create output manager: %w", err)
	}
	outputManager.WithLogger(utils.NewComponentLogger("output"))

	opts := cfg.EngineOptions()
	pool := browser.NewPool(&cfg.Browser, opts.MaxWorkers)
	defer pool.Close()

	engine := scraper.NewEngine(pool, opts).
		WithSites(cfg.Sites()).
		WithLogger(utils.NewComponentLogger("scraper"))

	if cfg.Metrics.Enabled {
		metrics := monitoring.NewMetricsManager(monitoring.DefaultMetricsConfig())
		engine.WithObserver(metrics)

		stopMetrics, err := startMonitoring(ctx, cfg.Metrics.ListenAddress, metrics, logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	start := time.Now()
	results, runErr := engine.Run(ctx, cfg.Job())
	if runErr != nil && len(results) == 0 {
		return fmt.Errorf("scraping failed: %w", runErr)
	}
	if runErr != nil {
		fmt.Fprintf(out, "⚠ Scraping interrupted (%v), saving partial results\n", runErr)
	}

	doc, err := outputManager.Persist(context.WithoutCancel(ctx), results)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	printSummary(out, doc, outputManager.Destination(), time.Since(start), verbose)
	return nil
}

// startMonitoring serves /metrics and /health until the returned stop is called
func startMonitoring(ctx context.Context, address string, metrics *monitoring.MetricsManager, logger utils.Logger) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	health := monitoring.NewHealthManager(version)
	health.RegisterCheck("run", func(context.Context) error { return ctx.Err() })

	srv, err := monitoring.Listen(address, monitoring.NewRouter(metrics, health))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}
	logger.Infof("Serving metrics on %s", srv.Addr())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ctx); err != nil {
			logger.Errorf("Metrics server stopped: %v", err)
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

func printSummary(out io.Writer, doc output.Document, destination string, elapsed time.Duration, verbose bool) {
	var total, successful int
	for _, id := range doc.DatasetIDs() {
		rec := doc[id]
		total += rec.TotalReactions
		successful += rec.SuccessfulScrapes
		if verbose {
			fmt.Fprintf(out, "  %s: %d/%d reactions\n", id, rec.SuccessfulScrapes, rec.TotalReactions)
		}
	}
	fmt.Fprintf(out, "Scraping completed in %s: %d datasets, %d/%d reactions. Results saved to %s\n",
		elapsed.Round(time.Second), len(doc), successful, total, destination)
}

// executeValidation performs configuration validation
func executeValidation(configFile string, verbose bool, out io.Writer) error {
	cfg, err := config.ParseFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	result := cfg.ValidateWithDetails()
	if !result.Valid {
		fmt.Fprintf(out, "Suggestions:\n")
		for _, suggestion := range cfg.GetValidationSuggestions(result) {
			fmt.Fprintf(out, "  • %s\n", suggestion)
		}
		return fmt.Errorf("invalid configuration: %w", cfg.Validate())
	}

	if verbose {
		fmt.Fprintf(out, "Configuration details:\n")
		fmt.Fprintf(out, "  Name: %s\n", cfg.Name)
		fmt.Fprintf(out, "  Base URL: %s\n", cfg.BaseURL)
		fmt.Fprintf(out, "  Mode: %s\n", cfg.Mode)
		fmt.Fprintf(out, "  Workers: %d\n", cfg.MaxWorkers)
		fmt.Fprintf(out, "  Output format: %s\n", cfg.Output.Format)
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "  Warning: %s\n", w)
		}
	}

	return nil
}

// hasFlag checks if a flag is present in command line arguments
func hasFlag(flag string) bool {
	for _, arg := range os.Args {
		if arg == flag {
			return true
		}
	}
	return false
}

// flagValue returns the argument following flag
func flagValue(args []string, flags ...string) string {
	for i, arg := range args {
		for _, f := range flags {
			if arg == f && i+1 < len(args) {
				return args[i+1]
			}
		}
	}
	return ""
}

// main function handles CLI arguments and routes to appropriate functions
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: ordscraper run <config.yaml>\n")
			os.Exit(1)
		}
		runScraper(os.Args[2])

	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: ordscraper validate <config.yaml>\n")
			os.Exit(1)
		}
		validateConfig(os.Args[2])

	case "template":
		template, err := generateTemplate(os.Args[2:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(template)

	case "interactive":
		cfg, err := runInteractive(os.Stdin, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if path := flagValue(os.Args[2:], "-o", "--output"); path != "" {
			if err := config.SaveToFile(cfg, path); err != nil {
				fmt.Fprint(os.Stderr, errorService.FormatErrorForCLI(err))
				os.Exit(errorService.GetExitCode(err))
			}
			fmt.Printf("✓ Configuration saved to %s\n", path)
			return
		}
		if err := config.SaveToWriter(cfg, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "version", "--version":
		printVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		printUsage()
		os.Exit(1)
	}
}

// printUsage displays help information
func printUsage() {
	fmt.Println("ORDScrapexter - Open Reaction Database scraper")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ordscraper run <config.yaml>         Run scraper with configuration file")
	fmt.Println("  ordscraper validate <config.yaml>    Validate configuration file")
	fmt.Println("  ordscraper template [--type <type>]  Generate configuration template")
	fmt.Println("  ordscraper interactive [-o <file>]   Build a configuration from prompts")
	fmt.Println("  ordscraper version                   Show version information")
	fmt.Println("  ordscraper help                      Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v, --verbose                        Enable verbose output")
	fmt.Println()
	fmt.Println("Template types:")
	fmt.Println("  all        Every dataset and reaction (default)")
	fmt.Println("  specific   Listed dataset ids")
	fmt.Println("  uniform    One dataset window and one reaction window")
	fmt.Println("  custom     A reaction window per dataset id")
	fmt.Println("  single     One reaction by position")
}

// printVersion displays version information
func printVersion() {
	fmt.Printf("ORDScrapexter %s\n", version)
	fmt.Printf("Build time: %s\n", buildTime)
	fmt.Printf("Git commit: %s\n", gitCommit)
}
