package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rubiojr/regsearch/pkg/core"
	"github.com/rubiojr/regsearch/pkg/engine"
	"github.com/urfave/cli/v3"
)

// ShowCommand creates the show command
func ShowCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Show the full details of a record",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "type",
				Aliases:  []string{"t"},
				Usage:    "Record category (source_type)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Record id",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Report an issue with the record instead of showing it",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the detail as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			st, err := core.ParseSourceType(c.String("type"))
			if err != nil {
				return err
			}
			id, err := core.ParseID(c.String("id"))
			if err != nil {
				return err
			}
			return showRecord(ctx, c.String("config"), st, id, c.String("report"), c.IsSet("report"), c.Bool("json"))
		},
	}
}

func showRecord(ctx context.Context, configPath string, st core.SourceType, id core.ID, report string, reporting, asJSON bool) error {
	eng, _, err := newEngine(configPath, nil)
	if err != nil {
		return err
	}
	defer eng.Close()

	err = eng.SelectRecord(ctx, st, id)
	var failure *engine.DetailFailure
	if err != nil && !errors.As(err, &failure) {
		return err
	}

	if reporting {
		if err := eng.SetReportMessage(report); err != nil {
			return err
		}
		if err := eng.SubmitReport(ctx); err != nil {
			var rerr *engine.ReportFailure
			if errors.As(err, &rerr) {
				return fmt.Errorf("%s: %w", engine.ReportFailureMessage, rerr.Err)
			}
			return err
		}
		fmt.Printf("Issue reported for %s/%s\n", st, id)
		return nil
	}

	d := eng.Snapshot().Detail
	if failure != nil {
		printDetail(os.Stderr, d)
		return failure
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d.Detail)
	}
	printDetail(os.Stdout, d)
	return nil
}
