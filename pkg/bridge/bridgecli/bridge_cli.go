package bridgecli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/neuroplastio/keybridge/internal/configsvc"
	"github.com/neuroplastio/keybridge/internal/inputsvc"
	"github.com/neuroplastio/keybridge/pkg/bridge"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func Main(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	dir, err := bridge.DefaultConfigDir()
	if err != nil {
		return err
	}
	cmd := NewRootCmd(dir)
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd.ExecuteContext(ctx)
}

// app is built by the root command before any subcommand runs. overrides
// applies the flags given on the command line.
type app struct {
	configPath string
	defaults   bridge.Config
	config     bridge.Config
	overrides  func(bridge.Config) bridge.Config
	log        *zap.Logger
	level      zap.AtomicLevel
}

type appProvider func() *app

func NewRootCmd(configDir string) *cobra.Command {
	a := &app{
		configPath: filepath.Join(configDir, "keybridge.yml"),
		defaults:   bridge.DefaultConfig(filepath.Join(configDir, "data")),
	}
	defaults := a.defaults
	var flags bridge.Config
	var journal bool

	rootCmd := &cobra.Command{
		Use:   "keybridge",
		Short: "Keyboard combo and click bridge",
		Long: `keybridge listens to keyboard and mouse input and writes normalized key combos
and clicks to stdout as JSON lines, for a host process to consume.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", a.configPath, "config file")
	pf.StringVar(&flags.Backend, "backend", defaults.Backend, "input backend ("+strings.Join(inputsvc.Backends(), ", ")+")")
	pf.StringVar(&flags.Keymap, "keymap", "", "keymap for raw key codes (default depends on the backend)")
	pf.StringVar(&flags.Log.Level, "log-level", defaults.Log.Level, "log level")
	pf.StringVar(&flags.Clicks.File, "clicks-file", defaults.Clicks.File, "click file")
	pf.BoolVar(&journal, "journal", defaults.Journal.Enabled, "record events in the journal")
	pf.StringVar(&flags.Journal.Dir, "journal-dir", defaults.Journal.Dir, "journal directory")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		changed := cmd.Flags().Changed
		a.overrides = func(cfg bridge.Config) bridge.Config {
			if changed("backend") {
				cfg.Backend = flags.Backend
			}
			if changed("keymap") {
				cfg.Keymap = flags.Keymap
			}
			if changed("log-level") {
				cfg.Log.Level = flags.Log.Level
			}
			if changed("clicks-file") {
				cfg.Clicks.File = flags.Clicks.File
			}
			if changed("journal") {
				cfg.Journal.Enabled = journal
			}
			if changed("journal-dir") {
				cfg.Journal.Dir = flags.Journal.Dir
			}
			return cfg
		}
		fileCfg, err := configsvc.Load(a.configPath, a.defaults)
		if err != nil {
			return err
		}
		cfg := a.overrides(fileCfg)
		lvl, err := bridge.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		a.config = cfg
		a.level = zap.NewAtomicLevelAt(lvl)
		a.log = bridge.NewLogger(cmd.ErrOrStderr(), a.level)
		return nil
	}
	provider := func() *app {
		return a
	}
	rootCmd.AddCommand(NewKeys(provider))
	rootCmd.AddCommand(NewClicks(provider))
	rootCmd.AddCommand(NewRun(provider))
	rootCmd.AddCommand(NewReplay(provider))
	rootCmd.AddCommand(NewJournal(provider))
	rootCmd.AddCommand(NewKeymap())
	rootCmd.AddCommand(NewDevices(provider))
	rootCmd.AddCommand(NewConfig(provider))
	return rootCmd
}

func (a *app) run(cmd *cobra.Command, cfg bridge.Config, mode bridge.Mode, watch bool) error {
	var opts []bridge.Option
	if watch {
		opts = append(opts, bridge.WithConfigWatch(a.configPath, a.defaults, a.overrides))
	}
	defer a.log.Sync()
	return bridge.New(a.log, a.level, cfg, opts...).Run(cmd.Context(), mode, cmd.OutOrStdout())
}

func NewKeys(app appProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Stream key combos",
		Long:  `Print the ready line, then one keycombo record per normalized combo.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			return a.run(cmd, a.config, bridge.ModeKeys, true)
		},
	}
}

func NewClicks(app appProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "clicks",
		Short: "Stream mouse clicks",
		Long:  `Print one record per mouse button press and keep the click file up to date.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			return a.run(cmd, a.config, bridge.ModeClicks, true)
		},
	}
}

func NewRun(app appProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Stream key combos and clicks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			return a.run(cmd, a.config, bridge.ModeAll, true)
		},
	}
}

func NewReplay(app appProvider) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "replay <script>",
		Short: "Replay a keyscript through the pipelines",
		Long: `Replay feeds a keyscript through the same pipelines as live input and exits
when the script ends. Key names resolve through --keymap (default vk).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseMode(mode)
			if err != nil {
				return err
			}
			a := app()
			cfg := a.config
			cfg.Backend = inputsvc.BackendScript
			cfg.Script = args[0]
			return a.run(cmd, cfg, m, false)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "all", "pipelines to run (keys, clicks, all)")
	return cmd
}

func parseMode(mode string) (bridge.Mode, error) {
	switch mode {
	case "keys":
		return bridge.ModeKeys, nil
	case "clicks":
		return bridge.ModeClicks, nil
	case "all":
		return bridge.ModeAll, nil
	}
	return bridge.Mode{}, fmt.Errorf("unknown mode %q", mode)
}

func NewConfig(app appProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			yamlB, err := configsvc.Marshal(app().config)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(yamlB)
			return err
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration unless the file exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			written, err := configsvc.WriteDefault(a.configPath, a.config)
			if err != nil {
				return err
			}
			if !written {
				return fmt.Errorf("config file already exists: %s", a.configPath)
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.configPath)
			return nil
		},
	})
	return cmd
}
