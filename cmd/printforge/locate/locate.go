package locatecmd

import (
	"errors"
	"fmt"

	"printforge/cmd/printforge/cmdutil"
	"printforge/cmd/printforge/ui"
	"printforge/internal/slicer"

	"github.com/spf13/cobra"
)

// Cmd returns the "printforge locate" command.
func Cmd(opts *cmdutil.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Show where the slicer executable was looked for",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}
			loc := slicer.NewLocator(cfg.Slicer.Path, cfg.Slicer.Candidates)

			fmt.Println(ui.Table([]string{"Source", "Query", "Resolved", "Status"}, probeRows(loc.Probe())))

			path, err := loc.Locate()
			if err != nil {
				if errors.Is(err, slicer.ErrNotFound) {
					fmt.Println(ui.WarnMsg("no slicer executable found for %s", loc.GOOS))
				}
				return err
			}
			fmt.Println(ui.SuccessMsg("using %s", ui.Bold(path)))
			return nil
		},
	}
}

func probeRows(probes []slicer.Probe) [][]string {
	rows := make([][]string, 0, len(probes))
	for _, p := range probes {
		resolved := p.Path
		if resolved == "" {
			resolved = "-"
		}
		rows = append(rows, []string{p.Source, p.Query, resolved, ui.Found(p.Found)})
	}
	return rows
}
