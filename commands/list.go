package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	cli "github.com/urfave/cli/v3"

	"imgres/state"
)

// List prints merged asset records of scopes.
func List(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	list, err := scopes(cmd)
	if err != nil {
		return err
	}
	lib, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer closeLibrary(lib, env.Log)

	for _, s := range list {
		if cmd.Bool("dump") {
			ix, err := lib.Index(ctx, s)
			if err != nil {
				return fmt.Errorf("unable to build index of %s: %w", s, err)
			}
			fmt.Fprint(os.Stdout, ix.Dump())
			continue
		}

		records, err := lib.Records(ctx, s)
		if err != nil {
			return fmt.Errorf("unable to list %s: %w", s, err)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "# %s (%d)\n", s, len(records))
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.DisplayName, r.Source, r.Location, strings.Join(r.Tags, ","))
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("unable to write result: %w", err)
		}
	}
	return nil
}
