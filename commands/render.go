package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"imgres/common"
	"imgres/config"
	"imgres/htmldoc"
	"imgres/library"
	"imgres/render"
	"imgres/state"
	"imgres/watch"
)

// Render resolves placeholders in text containers of HTML document.
func Render(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return errors.New("no source document")
	}
	if cmd.Args().Len() > 2 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	src, dst := cmd.Args().Get(0), cmd.Args().Get(1)

	list, err := scopes(cmd)
	if err != nil {
		return err
	}
	lib, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer closeLibrary(lib, env.Log)

	target := lib.Target(list...)
	if err := renderOnce(ctx, target, src, dst); err != nil {
		return err
	}
	if !cmd.Bool("watch") {
		return nil
	}

	changes := make(chan struct{}, 1)
	w, err := watch.New(cmd.Duration("debounce"), func([]string) {
		select {
		case changes <- struct{}{}:
		default:
		}
	}, env.Log)
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range watchedDirs(&env.Cfg.Assets) {
		if err := w.Add(dir); err != nil {
			env.Log.Warn("Unable to watch", zap.String("dir", dir), zap.Error(err))
		}
	}
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			env.Log.Warn("Watcher stopped", zap.Error(err))
		}
	}()

	env.Log.Info("Watching for changes, press Ctrl-C to stop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			target.Invalidate()
			if err := renderOnce(ctx, target, src, dst); err != nil {
				env.Log.Error("Unable to render", zap.Error(err))
			}
		}
	}
}

func renderOnce(ctx context.Context, target *library.Target, src, dst string) error {
	env := state.EnvFromContext(ctx)
	cfg := &env.Cfg.Assets.Render
	start := time.Now()

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open source document: %w", err)
	}
	doc, err := htmldoc.Parse(f, "text/html", cfg.ContainerClass)
	f.Close()
	if err != nil {
		return err
	}

	sched := render.NewScheduler(cfg, doc, nil, render.RealClock{}, env.Metrics, env.Log)
	defer sched.Close()

	attached, err := sched.Switch(ctx, target)
	if err != nil {
		return err
	}
	if attached {
		for _, id := range doc.IDs() {
			sched.Notify(id, common.ChangeKindAdded)
		}
		if err := sched.Wait(ctx); err != nil {
			return fmt.Errorf("rendering interrupted: %w", err)
		}
	} else {
		env.Log.Info("No assets, document is left as is")
	}

	out, err := output(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := doc.Render(out); err != nil {
		return fmt.Errorf("unable to write document: %w", err)
	}

	st := sched.Stats()
	env.Log.Info("Document rendered", zap.Int("containers", len(doc.IDs())), zap.Int("patched", st.Patched),
		zap.Int("faults", st.Faults), zap.Int("ticks", st.Ticks), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// watchedDirs returns local directories library data lives in.
func watchedDirs(cfg *config.AssetsConfig) []string {
	var dirs []string
	switch cfg.Registry.Kind {
	case common.RegistryKindYaml:
		dirs = append(dirs, cfg.Registry.Path)
	case common.RegistryKindSqlite:
		if cfg.Registry.Path != ":memory:" {
			dirs = append(dirs, filepath.Dir(cfg.Registry.Path))
		}
	}
	if cfg.Storage.Kind == common.StorageKindLocal {
		dirs = append(dirs, cfg.Storage.LocalRoot)
	}
	return dirs
}
