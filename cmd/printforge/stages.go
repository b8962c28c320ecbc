package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"printforge/cmd/printforge/cmdutil"
	"printforge/cmd/printforge/ui"
	"printforge/internal/meshconv"

	"github.com/spf13/cobra"
)

func generateCmd(opts *cmdutil.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "generate [image]",
		Short: "Generate a mesh from an image",
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

			mesh, err := gen.Generate(ctx, imageArg(args))
			if err != nil {
				return err
			}
			fmt.Println(ui.SuccessMsg("Mesh written to %s", ui.Bold(mesh)))
			return nil
		},
	}
}

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <mesh>",
		Short: "Convert a mesh to a format the slicer reads",
		Long:  "Writes an STL next to the input mesh. STL input is reported unchanged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			out, err := meshconv.ToSliceable(args[0])
			if err != nil {
				return err
			}
			if out == args[0] {
				fmt.Println(ui.InfoMsg("%s is already sliceable", ui.Bold(out)))
				return nil
			}
			fmt.Println(ui.SuccessMsg("Converted to %s", ui.Bold(out)))
			return nil
		},
	}
}

func sliceCmd(opts *cmdutil.Options) *cobra.Command {
	var slicerConfig string

	cmd := &cobra.Command{
		Use:   "slice <mesh>",
		Short: "Slice a mesh to G-code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}
			gcode, err := cmdutil.NewSlicer(cfg).Slice(ctx, args[0], slicerConfig)
			if err != nil {
				return err
			}
			fmt.Println(ui.SuccessMsg("G-code written to %s", ui.Bold(gcode)))
			return nil
		},
	}
	cmd.Flags().StringVar(&slicerConfig, "slicer-config", "", "Slicer profile (default <slicer_configs>/<slicer.default_config>)")
	return cmd
}
