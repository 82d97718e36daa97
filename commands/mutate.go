package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"imgres/archive"
	"imgres/asset"
	"imgres/library"
	"imgres/names"
	"imgres/state"
)

// mutate opens library and runs fn against single scope.
func mutate(ctx context.Context, cmd *cli.Command, fn func(*library.Library, asset.Scope) error) error {
	env := state.EnvFromContext(ctx)

	scope, err := single(cmd)
	if err != nil {
		return err
	}
	lib, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer closeLibrary(lib, env.Log)
	return fn(lib, scope)
}

// Add registers asset pointing to existing URL.
func Add(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("exactly one asset name expected")
	}
	e := asset.Entry{
		Name: cmd.Args().First(),
		URL:  cmd.String("url"),
		Tags: cmd.StringSlice("tag"),
	}
	if len(e.URL) == 0 {
		return errors.New("--url is required")
	}
	return mutate(ctx, cmd, func(lib *library.Library, scope asset.Scope) error {
		if err := lib.Add(ctx, scope, e); err != nil {
			return fmt.Errorf("unable to add asset: %w", err)
		}
		state.EnvFromContext(ctx).Log.Info("Asset added", zap.Stringer("scope", scope), zap.String("name", e.Name))
		return nil
	})
}

// Remove forgets assets without touching storage.
func Remove(ctx context.Context, cmd *cli.Command) error {
	return mutate(ctx, cmd, func(lib *library.Library, scope asset.Scope) error {
		for _, name := range cmd.Args().Slice() {
			if err := lib.Remove(ctx, scope, name); err != nil {
				return fmt.Errorf("unable to remove asset: %w", err)
			}
		}
		return nil
	})
}

// Rename changes asset display name.
func Rename(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return errors.New("OLD and NEW names expected")
	}
	return mutate(ctx, cmd, func(lib *library.Library, scope asset.Scope) error {
		if err := lib.Rename(ctx, scope, cmd.Args().Get(0), cmd.Args().Get(1)); err != nil {
			return fmt.Errorf("unable to rename asset: %w", err)
		}
		return nil
	})
}

// Tags replaces asset tags.
func Tags(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return errors.New("asset name expected")
	}
	return mutate(ctx, cmd, func(lib *library.Library, scope asset.Scope) error {
		if err := lib.SetTags(ctx, scope, cmd.Args().First(), cmd.Args().Tail()); err != nil {
			return fmt.Errorf("unable to set tags: %w", err)
		}
		return nil
	})
}

func report(ctx context.Context, res *library.BatchResult) error {
	env := state.EnvFromContext(ctx)
	for _, it := range res.Items {
		if it.Err != nil {
			env.Log.Warn("Failed", zap.String("op", res.Op), zap.String("name", it.Name), zap.Error(it.Err))
		} else {
			env.Log.Debug("Done", zap.String("op", res.Op), zap.String("name", it.Name), zap.String("url", it.URL))
		}
	}
	env.Log.Info("Batch finished", zap.String("op", res.Op), zap.Int("succeeded", res.Succeeded), zap.Int("failed", res.Failed))
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d items failed: %w", res.Failed, len(res.Items), res.Err())
	}
	return nil
}

// Upload stores image files and registers them, asset names are derived
// from file names.
func Upload(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return errors.New("nothing to upload")
	}
	uploads := make([]library.Upload, 0, cmd.Args().Len())
	tags := cmd.StringSlice("tag")
	for _, fname := range cmd.Args().Slice() {
		if strings.EqualFold(filepath.Ext(fname), ".zip") {
			err := archive.Images(fname, cmd.String("prefix"), cmd.Int64("limit"), func(name, _ string, data []byte) error {
				uploads = append(uploads, library.Upload{Name: name, Data: data, Tags: tags})
				return nil
			})
			if err != nil {
				return fmt.Errorf("unable to read '%s': %w", fname, err)
			}
			continue
		}
		data, err := os.ReadFile(fname)
		if err != nil {
			return fmt.Errorf("unable to read '%s': %w", fname, err)
		}
		base, _ := names.SplitNameAndFormat(filepath.Base(fname))
		uploads = append(uploads, library.Upload{Name: base, Data: data, Tags: tags})
	}
	return mutate(ctx, cmd, func(lib *library.Library, scope asset.Scope) error {
		res, err := lib.UploadBatch(ctx, scope, uploads)
		if err != nil {
			return fmt.Errorf("unable to upload: %w", err)
		}
		return report(ctx, res)
	})
}

// Delete removes assets together with their files.
func Delete(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return errors.New("nothing to delete")
	}
	return mutate(ctx, cmd, func(lib *library.Library, scope asset.Scope) error {
		res, err := lib.DeleteBatch(ctx, scope, cmd.Args().Slice())
		if err != nil {
			return fmt.Errorf("unable to delete: %w", err)
		}
		return report(ctx, res)
	})
}
