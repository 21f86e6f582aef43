// Package cli implements ledgerctl, an offline reader for the JSON documents
// produced by GET /api/v1/fuel/export.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"fuel-tracker/internal/models"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// App is the ledgerctl command tree.
type App struct {
	rootCmd *cobra.Command
	in      io.Reader
	out     io.Writer
}

func NewApp(version string, in io.Reader, out io.Writer) *App {
	app := &App{in: in, out: out}

	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Inspect fuel and maintenance exports offline",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				color.NoColor = true
				pterm.DisableStyling()
			}
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	rootCmd.PersistentFlags().StringP("file", "f", "-", `Export file to read ("-" reads stdin)`)
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(app.statsCommand(), app.monthlyCommand(), app.maintenanceCommand())

	app.rootCmd = rootCmd
	return app
}

// Execute runs the command line in args.
func (a *App) Execute(args []string) error {
	a.rootCmd.SetArgs(args)
	return a.rootCmd.Execute()
}

func (a *App) loadExport(cmd *cobra.Command) (*models.FuelExport, error) {
	path, _ := cmd.Flags().GetString("file")

	var r io.Reader = a.in
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open export: %w", err)
		}
		defer f.Close()
		r = f
	}

	var export models.FuelExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}
	return &export, nil
}

func (a *App) heading(export *models.FuelExport, title string) {
	scope := "All vehicles"
	if export.Vehicle != nil {
		scope = export.Vehicle.Name
	}
	color.New(color.FgCyan, color.Bold).Fprintf(a.out, "%s - %s\n", title, scope)
	fmt.Fprintf(a.out, "Exported %s\n\n", export.GeneratedAt.Format("2006-01-02 15:04"))
}

func (a *App) table(data pterm.TableData) error {
	rendered, err := pterm.DefaultTable.
		WithHasHeader().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, rendered)
	return err
}
