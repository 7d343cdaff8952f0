package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/datar-psa/rageval/dispatch"
)

func (a *app) newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List metric families, strategies and required sample fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FAMILY\tSTRATEGY\tREQUIRED FIELDS")
			for _, family := range dispatch.Families() {
				for _, strategy := range dispatch.Strategies(family) {
					fields, err := dispatch.RequiredFields(family, strategy)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", family, strategy, strings.Join(fields, ", "))
				}
			}
			return w.Flush()
		},
	}
}
