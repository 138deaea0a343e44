// cmd/ordscraper/interactive.go
package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/valpere/ORDScrapexter/internal/config"
	"github.com/valpere/ORDScrapexter/internal/ranges"
	"github.com/valpere/ORDScrapexter/internal/scraper"
)

const defaultInteractiveWorkers = 3

// prompter reads answers line by line
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// askIndex asks for an optional positive integer. An empty answer is nil.
func (p *prompter) askIndex(question string) (*int, error) {
	for {
		answer, err := p.ask(question)
		if err != nil {
			return nil, err
		}
		if answer == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 {
			return &n, nil
		}
		fmt.Fprintf(p.out, "  %q is not a positive number, try again\n", answer)
	}
}

func (p *prompter) askWindow(startQuestion, endQuestion string) (ranges.Window, error) {
	start, err := p.askIndex(startQuestion)
	if err != nil && err != io.EOF {
		return ranges.Window{}, err
	}
	end, err := p.askIndex(endQuestion)
	if err != nil && err != io.EOF {
		return ranges.Window{}, err
	}
	return ranges.Window{Start: start, End: end}, nil
}

// runInteractive builds a configuration from the five mode menu
func runInteractive(in io.Reader, out io.Writer) (*config.ScraperConfig, error) {
	p := &prompter{scanner: bufio.NewScanner(in), out: out}

	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out, "ORD SCRAPER - CONFIGURATION")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out, "1. Scrape ALL datasets")
	fmt.Fprintln(out, "2. Scrape SPECIFIC datasets by ID")
	fmt.Fprintln(out, "3. Scrape UNIFORM range")
	fmt.Fprintln(out, "4. Scrape CUSTOM ranges")
	fmt.Fprintln(out, "5. Scrape SINGLE reaction")

	choice, err := p.ask("\nEnter mode (1-5): ")
	if err != nil && err != io.EOF {
		return nil, err
	}

	cfg := config.DefaultConfig()
	cfg.MaxWorkers = defaultInteractiveWorkers

	switch choice {
	case "2":
		cfg.Mode = string(scraper.ModeSpecific)
		answer, err := p.ask("Enter dataset IDs (comma-separated): ")
		if err != nil && err != io.EOF {
			return nil, err
		}
		for _, id := range strings.Split(answer, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.DatasetIDs = append(cfg.DatasetIDs, id)
			}
		}

	case "3":
		cfg.Mode = string(scraper.ModeUniform)
		if cfg.Datasets, err = p.askWindow("Start dataset index: ", "End dataset index: "); err != nil {
			return nil, err
		}
		if cfg.Reactions, err = p.askWindow("Start reaction index: ", "End reaction index: "); err != nil {
			return nil, err
		}

	case "4":
		cfg.Mode = string(scraper.ModeCustom)
		for {
			id, err := p.ask("Enter dataset ID (Enter to finish): ")
			if err != nil && err != io.EOF {
				return nil, err
			}
			if id == "" {
				break
			}
			window, err := p.askWindow(
				fmt.Sprintf("  Start idx for %s: ", id),
				fmt.Sprintf("  End idx for %s: ", id),
			)
			if err != nil {
				return nil, err
			}
			cfg.DatasetRanges = append(cfg.DatasetRanges, scraper.DatasetRange{ID: id, Reactions: window})
		}

	case "5":
		cfg.Mode = string(scraper.ModeSingle)
		cfg.MaxWorkers = 1
		for cfg.Target.Dataset == 0 {
			d, err := p.askIndex("Enter dataset index (e.g., 50): ")
			if err == io.EOF {
				return nil, fmt.Errorf("input ended before a dataset index was given")
			}
			if err != nil {
				return nil, err
			}
			if d != nil {
				cfg.Target.Dataset = *d
			}
		}
		r, err := p.askIndex("Enter reaction index (Enter for 1): ")
		if err != nil && err != io.EOF {
			return nil, err
		}
		cfg.Target.Reaction = 1
		if r != nil {
			cfg.Target.Reaction = *r
		}

	default:
		cfg.Mode = string(scraper.ModeAll)
		if cfg.Datasets, err = p.askWindow(
			"Start dataset index (1-based, Enter for 1): ",
			"End dataset index (1-based, Enter for all): ",
		); err != nil {
			return nil, err
		}
	}

	cfg.Name = "ord_" + cfg.Mode
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
