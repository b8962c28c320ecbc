package configcmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"printforge/cmd/printforge/cmdutil"
	"printforge/cmd/printforge/ui"
	"printforge/config"

	"github.com/spf13/cobra"
)

// Cmd returns the parent "printforge config" command.
func Cmd(opts *cmdutil.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}
	cmd.AddCommand(showCmd(opts))
	cmd.AddCommand(initCmd(opts))
	cmd.AddCommand(pathCmd(opts))
	return cmd
}

func resolvePath(opts *cmdutil.Options) string {
	if p := strings.TrimSpace(opts.ConfigPath); p != "" {
		return p
	}
	return config.DefaultPath()
}

func showCmd(opts *cmdutil.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}
			fmt.Print(summary(resolvePath(opts), cfg))
			return nil
		},
	}
}

func summary(path string, cfg *config.Config) string {
	var endpoint string
	switch cfg.Backend.Kind {
	case config.BackendHTTP:
		endpoint = cfg.Backend.Endpoint
	case config.BackendDocker:
		endpoint = cfg.Backend.Image
	default:
		endpoint = strings.Join(cfg.Backend.Command, " ")
	}
	slicerPath := cfg.Slicer.Path
	if slicerPath == "" {
		slicerPath = ui.Muted("auto")
	}
	defaultImage := cfg.DefaultImage
	if defaultImage == "" {
		defaultImage = ui.Muted("none")
	}

	return ui.KeyValues("  ",
		ui.KV("File", path),
		ui.KV("Meshes", cfg.Directories.Meshes),
		ui.KV("Slicer configs", cfg.Directories.SlicerConfigs),
		ui.KV("G-code", cfg.Directories.GCode),
		ui.KV("Default image", defaultImage),
		ui.KV("Model", fmt.Sprintf("%s (cache %s)", cfg.Model.Registry, orNone(cfg.Model.CacheDir))),
		ui.KV("Backend", cfg.Backend.Kind+" "+ui.Muted(endpoint)),
		ui.KV("Slicer", slicerPath),
		ui.KV("Slicer profile", cfg.DefaultSlicerConfigPath()),
	)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func initCmd(opts *cmdutil.Options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			path := resolvePath(opts)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat config file %s: %w", path, err)
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Println(ui.SuccessMsg("Config written to %s", ui.Bold(path)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func pathCmd(opts *cmdutil.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Println(resolvePath(opts))
		},
	}
}
