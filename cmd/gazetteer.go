package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/council-ops/unit-roster/internal/gazetteer"
)

var gazetteerCmd = &cobra.Command{
	Use:   "gazetteer",
	Short: "Inspect the locality gazetteer",
}

var gazetteerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List localities and their districts",
	RunE: func(_ *cobra.Command, _ []string) error {
		gz, err := loadGazetteer()
		if err != nil {
			return err
		}
		formatGazetteer(os.Stdout, gz)
		return nil
	},
}

var gazetteerCheckCmd = &cobra.Command{
	Use:   "check <name>",
	Short: "Show how a spelling resolves",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		gz, err := loadGazetteer()
		if err != nil {
			return err
		}
		return checkName(os.Stdout, gz, args[0])
	},
}

func formatGazetteer(w io.Writer, gz *gazetteer.Gazetteer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCALITY\tDISTRICT")
	for _, name := range gz.Localities() {
		fmt.Fprintf(tw, "%s\t%s\n", name, gz.District(name))
	}
	tw.Flush() //nolint:errcheck
}

func checkName(w io.Writer, gz *gazetteer.Gazetteer, name string) error {
	canonical, ok := gz.Canonical(name)
	if !ok {
		return eris.Errorf("gazetteer: %q is not a known locality", name)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Input:\t%s\n", name)
	fmt.Fprintf(tw, "Canonical:\t%s\n", canonical)
	if gz.IsVillage(name) {
		fmt.Fprintf(tw, "Village of:\t%s\n", gz.Parent(name))
	}
	fmt.Fprintf(tw, "District:\t%s\n", gz.District(name))
	return tw.Flush()
}

func init() {
	gazetteerCmd.AddCommand(gazetteerListCmd, gazetteerCheckCmd)
	rootCmd.AddCommand(gazetteerCmd)
}
