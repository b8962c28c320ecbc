package main

import (
	"os"

	"printforge/cmd/printforge/cmdutil"
	"printforge/cmd/printforge/configcmd"
	locatecmd "printforge/cmd/printforge/locate"
	"printforge/cmd/printforge/ui"
	"printforge/internal/buildinfo"
	"printforge/internal/logging"

	"github.com/spf13/cobra"
)

func main() {
	if err := logging.Configure(logging.LevelWarn); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	opts := &cmdutil.Options{}
	root := &cobra.Command{
		Use:           "printforge",
		Short:         "Turn a photo into printer-ready G-code",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			level := logging.LevelWarn
			if opts.Debug {
				level = logging.LevelDebug
			}
			if err := logging.Configure(level); err != nil {
				return err
			}
			ui.ConfigureInteraction(opts.NoInteraction)
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Config file (default $PRINTFORGE_CONFIG or the user config dir)")
	root.PersistentFlags().BoolVar(&opts.NoInteraction, "no-interaction", false, "Plain line output, no live checklist")

	root.AddCommand(runCmd(opts))
	root.AddCommand(generateCmd(opts))
	root.AddCommand(convertCmd())
	root.AddCommand(sliceCmd(opts))
	root.AddCommand(locatecmd.Cmd(opts))
	root.AddCommand(configcmd.Cmd(opts))

	if err := root.Execute(); err != nil {
		cmdutil.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
