// Package commands implements program subcommands.
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"imgres/asset"
	"imgres/library"
	"imgres/state"
)

var errNoScope = errors.New("no scope specified, use --character and/or --persona")

// ScopeFlags are shared by commands working on asset libraries.
var ScopeFlags = []cli.Flag{
	&cli.StringFlag{Name: "character", Aliases: []string{"ch"}, Usage: "character `NAME` whose assets are used"},
	&cli.StringFlag{Name: "persona", Aliases: []string{"p"}, Usage: "persona `NAME` whose assets are used after character ones"},
}

// scopes returns scopes from command line in priority order.
func scopes(cmd *cli.Command) ([]asset.Scope, error) {
	var out []asset.Scope
	if ch := strings.TrimSpace(cmd.String("character")); len(ch) > 0 {
		out = append(out, asset.Character(ch))
	}
	if p := strings.TrimSpace(cmd.String("persona")); len(p) > 0 {
		out = append(out, asset.Persona(p))
	}
	if len(out) == 0 {
		return nil, errNoScope
	}
	return out, nil
}

// single returns the only scope mutations work on, character wins.
func single(cmd *cli.Command) (asset.Scope, error) {
	list, err := scopes(cmd)
	if err != nil {
		return asset.Scope{}, err
	}
	return list[0], nil
}

func openLibrary(ctx context.Context) (*library.Library, error) {
	env := state.EnvFromContext(ctx)
	lib, err := library.Open(ctx, &env.Cfg.Assets, env.Metrics, env.Log)
	if err != nil {
		return nil, fmt.Errorf("unable to open asset library: %w", err)
	}
	return lib, nil
}

func closeLibrary(lib *library.Library, log *zap.Logger) {
	if err := lib.Close(); err != nil {
		log.Warn("Unable to close asset library", zap.Error(err))
	}
}

// textArg returns arguments joined or, when there are none, standard input.
func textArg(cmd *cli.Command, in io.Reader) (string, error) {
	if cmd.Args().Len() > 0 {
		return strings.Join(cmd.Args().Slice(), " "), nil
	}
	data, err := io.ReadAll(bufio.NewReader(in))
	if err != nil {
		return "", fmt.Errorf("unable to read input: %w", err)
	}
	return string(data), nil
}

func output(name string) (io.WriteCloser, error) {
	if len(name) == 0 || name == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("unable to create destination file '%s': %w", name, err)
	}
	return f, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}
