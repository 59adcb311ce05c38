package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/networkteam/surveyprobe/config"
	"github.com/networkteam/surveyprobe/scenario"
	"github.com/networkteam/surveyprobe/survey"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the scenario plan with the fixtures each scenario requires and produces",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFileFlag, cmd.Flags())
		if err != nil {
			return &exitError{code: exitSetup, err: err}
		}
		fixtures, err := loadFixtures(cfg)
		if err != nil {
			return &exitError{code: exitSetup, err: err}
		}

		registry := scenario.NewRegistry()
		if err := survey.Register(registry); err != nil {
			return &exitError{code: exitSetup, err: err}
		}
		plan, err := registry.Plan(fixtures.Preexisting...)
		if err != nil {
			return &exitError{code: exitSetup, err: err}
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tSCENARIO\tREQUIRES\tPRODUCES\tREMOVES\tDESCRIPTION")
		for _, s := range plan {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", s.Order, s.Name, keys(s.Requires), keys(s.Produces), keys(s.Removes), s.Description)
		}
		return tw.Flush()
	},
}

func keys(ks []scenario.Key) string {
	if len(ks) == 0 {
		return "-"
	}
	return strings.Join(lo.Map(ks, func(k scenario.Key, _ int) string { return string(k) }), ",")
}
