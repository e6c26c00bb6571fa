package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"netsync/internal/domain"
	"netsync/internal/metrics"
	"netsync/internal/service"
	"netsync/internal/source"
)

func newLoadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a controller inventory dump into a snapshot",
		Long: `Resolves the controller's locations into an area/building/floor tree, places
every device in it with its interfaces and addresses, and quarantines the
records that cannot be placed. The run is recorded in the database and the
snapshot exported when those are configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Source.Path == "" {
				return errors.New("a controller dump must be provided with --source or source.path")
			}

			client, err := source.OpenFileClient(a.cfg.Source.Path)
			if err != nil {
				return fmt.Errorf("failed to open source: %w", err)
			}

			repo, err := a.openRepository()
			if err != nil {
				return err
			}
			if repo != nil {
				defer repo.Close()
			}

			svc := service.NewSyncService(client, a.cfg, repo, metrics.DefaultRegistry(), service.NewEventBus(), a.logger)
			report, err := svc.Run(cmd.Context())
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.String("source", "", "controller dump to load (YAML or JSON)")
	flags.String("tenant", "", "tenant owning the loaded objects; also the address namespace")
	flags.String("controller-group", "", "management group recorded on every device")
	flags.Bool("import-global", false, "keep the controller's top-level container as an area")
	flags.Bool("import-meraki", false, "load Meraki devices instead of excluding them")
	flags.Bool("show-failures", false, "log every quarantined device after the load")
	flags.Bool("debug", false, "log per-record decisions")
	flags.String("export", "", "write the snapshot and quarantine to this file")
	flags.String("format", "", "export format: json, yaml")
	flags.Bool("compress", false, "snappy-compress the export")
	flags.String("metrics-textfile", "", "write run metrics in Prometheus text format to this file")
	bindFlags(a.v, flags, map[string]string{
		"source.path":           "source",
		"load.tenant":           "tenant",
		"load.controller_group": "controller-group",
		"load.import_global":    "import-global",
		"load.import_meraki":    "import-meraki",
		"load.show_failures":    "show-failures",
		"load.debug":            "debug",
		"export.path":           "export",
		"export.format":         "format",
		"export.compress":       "compress",
		"metrics.textfile_path": "metrics-textfile",
	})

	return cmd
}

func printReport(w io.Writer, report *service.RunReport) {
	run := report.Run
	fmt.Fprintf(w, "Run %s %s in %s, namespace %s\n",
		run.ID, run.Status, run.Duration().Round(time.Millisecond), run.Namespace)
	fmt.Fprintf(w, "Devices: %d input, %d loaded, %d quarantined, %d excluded\n",
		run.Stats.Input, run.Stats.Loaded, run.Stats.Quarantined, run.Stats.Excluded)

	fmt.Fprint(w, "Nodes:")
	for _, kind := range domain.Kinds() {
		fmt.Fprintf(w, " %s=%d", kind, report.Snapshot.Count(kind))
	}
	fmt.Fprintln(w)

	state := "changed"
	if !report.Changed {
		state = "unchanged"
	}
	fmt.Fprintf(w, "Fingerprint: %s (%s)\n", run.Fingerprint, state)
}
