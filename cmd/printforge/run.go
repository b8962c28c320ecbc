package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"printforge/cmd/printforge/cmdutil"
	"printforge/cmd/printforge/ui"
	"printforge/internal/pipeline"

	"github.com/spf13/cobra"
)

func runCmd(opts *cmdutil.Options) *cobra.Command {
	var slicerConfig string

	cmd := &cobra.Command{
		Use:   "run [image]",
		Short: "Generate a mesh from an image and slice it to G-code",
		Long:  "Runs shape generation, mesh conversion and slicing in order. Without an image argument the configured default_image is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}
			gen, closeGen, err := cmdutil.NewGenerator(cfg)
			if err != nil {
				return err
			}
			defer closeGen()

			telemetryOut := ui.NewTelemetryOutput()
			defer telemetryOut.Close()

			runner := &pipeline.Runner{
				Generator: gen,
				Slicer:    cmdutil.NewSlicer(cfg),
				Tracer:    telemetryOut.Tracer("printforge/cmd/run"),
			}
			res, err := runner.Run(ctx, pipeline.Request{Image: imageArg(args), SlicerConfig: slicerConfig})
			telemetryOut.Close()
			if err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("G-code ready at %s", ui.Bold(res.GCode)))
			fmt.Print(ui.KeyValues("  ",
				ui.KV("Mesh", res.Mesh),
				ui.KV("Sliceable", res.Sliceable),
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&slicerConfig, "slicer-config", "", "Slicer profile (default <slicer_configs>/<slicer.default_config>)")
	return cmd
}

func imageArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
