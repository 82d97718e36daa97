package commands

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"imgres/compress"
	"imgres/state"
)

// Compress prints compact summary of asset names. Names come either from
// command line or from libraries of specified scopes.
func Compress(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	all := cmd.Args().Slice()
	if len(all) == 0 {
		list, err := scopes(cmd)
		if err != nil {
			return err
		}
		lib, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer closeLibrary(lib, env.Log)

		if all, err = lib.AssetNames(ctx, list...); err != nil {
			return fmt.Errorf("unable to get asset names: %w", err)
		}
	}

	var out string
	if cmd.Bool("summary") {
		out = compress.Summary(all)
	} else {
		out = compress.CompressNames(all) + "\n"
	}
	if _, err := fmt.Fprint(os.Stdout, out); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}
	return nil
}
