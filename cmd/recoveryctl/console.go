package main

import (
	"context"

	"recoveryctl/internal/backend"
	"recoveryctl/internal/console"
	"recoveryctl/internal/log"
	"recoveryctl/internal/tui"
	"recoveryctl/internal/tui/styles"
	"recoveryctl/internal/volume"
	"recoveryctl/internal/watch"

	"github.com/spf13/cobra"
)

// session holds the collaborators one invocation shares
type session struct {
	presenter *tui.Presenter
	table     *volume.Table
	volumes   *volume.SystemManager
	console   *console.Console
	watcher   *watch.Watcher
}

func newSession(opts ...tui.Option) (*session, error) {
	presenter := tui.New(append([]tui.Option{
		tui.WithLogFile(cfg.Log.File),
		tui.WithStyles(styles.New(cfg.Theme.Name)),
	}, opts...)...)
	table := volume.NewTable(cfg.Volumes)
	exec := backend.NewExec(backend.TemplatesFromConfig(cfg))
	volumes := volume.NewSystemManager(table, exec)

	con, err := console.New(cfg, presenter, table, volumes, exec)
	if err != nil {
		return nil, err
	}
	return &session{
		presenter: presenter,
		table:     table,
		volumes:   volumes,
		console:   con,
	}, nil
}

// startWatcher refreshes the open menu whenever watched storage changes.
// A watcher that can't start is logged and skipped.
func (s *session) startWatcher() {
	if !cfg.Watch.Enabled {
		return
	}
	w, err := watch.New()
	if err != nil {
		log.LogWithError(err).Warn("Storage watcher unavailable")
		return
	}
	if n := w.AddDirectories(cfg.Watch.Directories); n == 0 {
		log.LogWithFields(log.F("directories", cfg.Watch.Directories)).Warn("No watchable directories")
		w.Stop()
		return
	}
	if err := w.Start(); err != nil {
		log.LogWithError(err).Warn("Storage watcher failed to start")
		w.Stop()
		return
	}
	w.Forward(func(c watch.Change) {
		s.presenter.Refresh()
	})
	s.watcher = w
}

func (s *session) close() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
}

func runConsole(cmd *cobra.Command, run func(ctx context.Context, s *session), opts ...tui.Option) error {
	s, err := newSession(opts...)
	if err != nil {
		return err
	}
	s.startWatcher()
	defer s.close()

	run(cmd.Context(), s)
	return nil
}

// NewConsoleCmd creates the console command, which opens the main menu
func NewConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Open the main menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, func(ctx context.Context, s *session) {
				s.console.Run(ctx)
			})
		},
	}
}

// NewMenuCmds creates one command per submenu of the console
func NewMenuCmds() []*cobra.Command {
	menus := []struct {
		use   string
		short string
		open  func(*console.Console, context.Context)
	}{
		{"install", "Install update packages", (*console.Console).InstallMenu},
		{"nandroid", "Back up and restore partitions", (*console.Console).NandroidMenu},
		{"mounts", "Mount volumes and share storage over USB", (*console.Console).MountsMenu},
		{"format", "Format partitions", (*console.Console).FormatMenu},
		{"advanced", "Logs, storage target and SD card partitioning", (*console.Console).AdvancedMenu},
	}

	cmds := make([]*cobra.Command, 0, len(menus))
	for _, m := range menus {
		open := m.open
		cmds = append(cmds, &cobra.Command{
			Use:   m.use,
			Short: m.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConsole(cmd, func(ctx context.Context, s *session) {
					open(s.console, ctx)
				})
			},
		})
	}
	return cmds
}

// NewWipeCmd creates the wipe command
func NewWipeCmd() *cobra.Command {
	var cacheOnly bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe user data, or only the cache partition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, func(ctx context.Context, s *session) {
				if cacheOnly {
					s.console.WipeCache(ctx)
					return
				}
				s.console.WipeData(ctx)
			})
		},
	}

	cmd.Flags().BoolVar(&cacheOnly, "cache", false, "wipe only the cache partition")

	return cmd
}
