package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rubiojr/regsearch/pkg/client"
	"github.com/rubiojr/regsearch/pkg/config"
	"github.com/rubiojr/regsearch/pkg/core"
	"github.com/rubiojr/regsearch/pkg/engine"
	"github.com/rubiojr/regsearch/pkg/search"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the registries for a person",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Aliases:  []string{"n"},
				Usage:    "Full or partial name of the person",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "location",
				Usage: "Location (kept with the query, not sent to the registry yet)",
			},
			&cli.StringFlag{
				Name:  "profession",
				Usage: "Profession (kept with the query, not sent to the registry yet)",
			},
			&cli.StringFlag{
				Name:  "database",
				Usage: "Registry selector: all, change_of_name, change_of_dob, change_of_pob, marriage_officers",
				Value: string(core.DatabaseAll),
			},
			&cli.StringFlag{
				Name:  "category",
				Usage: "Category to show: change_of_name, correction_of_date_of_birth, correction_of_place_of_birth, marriage_officer",
				Value: string(core.SourceChangeOfName),
			},
			&cli.StringFlag{
				Name:  "filter",
				Usage: "Narrow the category to records containing this text",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort by name: asc or desc",
				Value: string(search.OrderAsc),
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Category page",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "results-page",
				Usage: "Registry results page",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the search state as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			dt, err := core.ParseDatabaseType(c.String("database"))
			if err != nil {
				return err
			}
			category, err := core.ParseSourceType(c.String("category"))
			if err != nil {
				return err
			}
			order, err := search.ParseOrder(c.String("sort"))
			if err != nil {
				return err
			}

			opts := searchOptions{
				query: core.Query{
					Name:         c.String("name"),
					Location:     c.String("location"),
					Profession:   c.String("profession"),
					DatabaseType: dt,
				},
				category:    category,
				filter:      c.String("filter"),
				order:       order,
				page:        int(c.Int("page")),
				resultsPage: int(c.Int("results-page")),
				json:        c.Bool("json"),
			}
			return runSearch(ctx, c.String("config"), opts)
		},
	}
}

type searchOptions struct {
	query       core.Query
	category    core.SourceType
	filter      string
	order       search.Order
	page        int
	resultsPage int
	json        bool
}

// newEngine builds a search engine from the configuration file.
func newEngine(configPath string, onChange func(engine.State)) (*engine.Engine, *config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	c, err := client.NewFromConfig(cfg.API)
	if err != nil {
		return nil, nil, fmt.Errorf("creating registry client: %w", err)
	}

	opts, err := engine.OptionsFromConfig(cfg.Search)
	if err != nil {
		return nil, nil, fmt.Errorf("search options: %w", err)
	}
	opts.OnChange = onChange

	return engine.New(c, opts), cfg, nil
}

func runSearch(ctx context.Context, configPath string, opts searchOptions) error {
	var onChange func(engine.State)
	if !opts.json {
		onChange = func(st engine.State) {
			if st.Phase == engine.PhaseSearching {
				fmt.Fprintf(os.Stderr, "\rsearching %s", progressBar(st.Progress, 30))
			}
		}
	}

	eng, _, err := newEngine(configPath, onChange)
	if err != nil {
		return err
	}
	defer eng.Close()

	err = eng.Submit(ctx, opts.query)
	if !opts.json {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}
	if err != nil {
		return searchError(err)
	}

	if opts.resultsPage > 1 {
		if err := eng.SetResultsPage(ctx, opts.resultsPage); err != nil {
			return searchError(err)
		}
	}

	if err := eng.SetActiveCategory(opts.category); err != nil {
		return err
	}
	if opts.filter != "" {
		if err := eng.SetFilterText(opts.filter); err != nil {
			return err
		}
	}
	if err := eng.SetSortOrder(opts.order); err != nil {
		return err
	}
	if opts.page > 1 {
		if err := eng.SetCategoryPage(opts.page); err != nil {
			return fmt.Errorf("category page %d: %w", opts.page, err)
		}
	}

	st := eng.Snapshot()
	view := eng.CategoryView()

	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			State engine.State        `json:"state"`
			View  engine.CategoryView `json:"view"`
		}{st, view})
	}

	printResults(os.Stdout, st, view)
	return nil
}

// searchError turns engine errors into CLI errors.
func searchError(err error) error {
	var failure *engine.SearchFailure
	if errors.As(err, &failure) {
		return fmt.Errorf("%s", errorStyle.Render(failure.Message))
	}
	if errors.Is(err, engine.ErrPageOutOfRange) {
		return fmt.Errorf("results page out of range")
	}
	return err
}
