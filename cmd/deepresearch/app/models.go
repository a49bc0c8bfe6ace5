package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shikanime-studio/deepresearch/internal/llm"
	"github.com/spf13/cobra"
)

// NewModelsCmd lists the model catalog with context windows and prices.
func NewModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List supported models and their pricing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printModels(cmd.OutOrStdout())
		},
	}
}

func printModels(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tMODEL\tCONTEXT\tINPUT $/M\tCACHED $/M\tCOMPLETION $/M\tSEARCH $/K (L/M/H)")
	for _, m := range llm.Models() {
		searchCost := "-"
		if sp := m.SearchPricing; sp != nil {
			searchCost = fmt.Sprintf("%g/%g/%g", sp.Low, sp.Medium, sp.High)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%g\t%g\t%g\t%s\n",
			m.Provider, m.ID, m.ContextWindow,
			m.Pricing.NonCachedInput, m.Pricing.CachedInput, m.Pricing.Completion,
			searchCost)
	}
	return tw.Flush()
}
