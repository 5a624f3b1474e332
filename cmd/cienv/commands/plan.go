package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/cienv/internal/config"
	"github.com/systmms/cienv/internal/gate"
	"github.com/systmms/cienv/internal/manifest"
	"github.com/systmms/cienv/internal/tempfiles"
)

// planRow describes one directive without its value
type planRow struct {
	Manifest string `json:"manifest"`
	Name     string `json:"name"`
	Source   string `json:"source"`
	Apply    bool   `json:"apply"`
	Reason   string `json:"reason,omitempty"`
	FileTmp  bool   `json:"file_tmp"`
}

func NewPlanCommand(cfg *config.Config) *cobra.Command {
	return newPlanCommand(cfg, nil)
}

func newPlanCommand(cfg *config.Config, deps *sessionDeps) *cobra.Command {
	var (
		manifests  []string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "plan [--manifest <loc>]...",
		Short: "Show what each directive would do (no values resolved)",
		Long: `Plan parses the manifests and shows, for every directive, its source,
whether its conditions pass on this machine and whether it would be
written to a temp file. No secret, role or object is fetched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cfg); err != nil {
				return err
			}
			locators, err := manifestLocators(cfg, manifests)
			if err != nil {
				return err
			}

			d := defaultDeps(cfg)
			if deps != nil {
				d = *deps
			}
			files := tempfiles.New(cfg.TempDir(), cfg.Logger)
			defer func() {
				if err := files.Release(); err != nil {
					cfg.Logger.Warn("Failed to remove temp files: %v", err)
				}
			}()
			loader := newLoader(cfg, files, d.objects)

			var rows []planRow
			for _, loc := range locators {
				m, err := loader.Load(context.Background(), loc)
				if err != nil {
					return err
				}
				rows = append(rows, planManifest(m, d.gate)...)
			}

			if outputJSON {
				return outputPlanJSON(cmd.OutOrStdout(), rows)
			}
			return outputPlanTable(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().StringArrayVarP(&manifests, "manifest", "m", nil, "Manifest file or s3:// locator (repeatable)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")

	return cmd
}

func planManifest(m *manifest.Manifest, gctx gate.Context) []planRow {
	rows := make([]planRow, 0, len(m.Entries))
	for _, entry := range m.Entries {
		row := planRow{Manifest: m.Locator, Name: entry.Name()}
		if entry.Err != nil {
			row.Source = "-"
			row.Reason = entry.Err.Error()
			rows = append(rows, row)
			continue
		}

		d := entry.Directive
		row.Source = string(d.Kind())
		row.FileTmp = d.Materialize
		if v := gate.Evaluate(d, gctx); v.Apply {
			row.Apply = true
		} else {
			row.Reason = v.Reason
		}
		rows = append(rows, row)
	}
	return rows
}

func outputPlanJSON(w io.Writer, rows []planRow) error {
	applied := 0
	for _, r := range rows {
		if r.Apply {
			applied++
		}
	}
	output := map[string]interface{}{
		"directives": rows,
		"summary": map[string]interface{}{
			"total":   len(rows),
			"applied": applied,
			"skipped": len(rows) - applied,
		},
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputPlanTable(w io.Writer, rows []planRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MANIFEST\tNAME\tSOURCE\tACTION\tFILE_TMP")
	applied := 0
	for _, r := range rows {
		action := "apply"
		if r.Apply {
			applied++
		} else {
			action = "skip: " + r.Reason
		}
		fileTmp := "no"
		if r.FileTmp {
			fileTmp = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Manifest, r.Name, r.Source, action, fileTmp)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d directives: %d would apply, %d would be skipped\n", len(rows), applied, len(rows)-applied)
	return nil
}
