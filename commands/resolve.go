package commands

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"imgres/state"
)

// Resolve substitutes placeholders in text from command line or STDIN.
func Resolve(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	list, err := scopes(cmd)
	if err != nil {
		return err
	}
	text, err := textArg(cmd, os.Stdin)
	if err != nil {
		return err
	}

	lib, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer closeLibrary(lib, env.Log)

	res, err := lib.ResolveText(ctx, text, list...)
	if err != nil {
		return fmt.Errorf("unable to resolve text: %w", err)
	}
	if len(res.Missing) > 0 {
		env.Log.Warn("Unresolved placeholders", zap.Strings("names", res.Missing))
	}
	env.Log.Debug("Resolved", zap.Int("found", len(res.Resolved)), zap.Int("guessed", res.Guessed))

	if _, err := fmt.Fprint(os.Stdout, res.Text); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}
	return nil
}
