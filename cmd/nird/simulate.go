package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"villagenird/internal/config"
	"villagenird/internal/decision"
	"villagenird/internal/indicator"
	"villagenird/internal/rules"
	"villagenird/internal/simulation"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type simulateFlags struct {
	os, hardware, cloud, training string
	years                         int
	difficulty                    string
	plan                          string
	asJSON                        bool
}

// plan is a YAML list of per-year decisions; the last entry repeats.
type plan struct {
	Years []decision.Decisions `yaml:"years"`
}

func newSimulateCmd(root *rootFlags) *cobra.Command {
	f := &simulateFlags{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a multi-year simulation offline and print each year",
		Example: `  nird simulate --os massMigration --hardware refurbish --cloud sovereign --training studentClub
  nird simulate --plan plan.yml --difficulty hard --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.OutOrStdout(), root, f)
		},
	}
	cmd.Flags().StringVar(&f.os, "os", string(decision.OSStatusQuo), "osStrategy: "+strings.Join(decision.Options(decision.AxisOSStrategy), "|"))
	cmd.Flags().StringVar(&f.hardware, "hardware", string(decision.HardwareBuyNew), "hardwarePolicy: "+strings.Join(decision.Options(decision.AxisHardwarePolicy), "|"))
	cmd.Flags().StringVar(&f.cloud, "cloud", string(decision.CloudProprietary), "cloudStrategy: "+strings.Join(decision.Options(decision.AxisCloudStrategy), "|"))
	cmd.Flags().StringVar(&f.training, "training", string(decision.TrainingNone), "training: "+strings.Join(decision.Options(decision.AxisTraining), "|"))
	cmd.Flags().IntVar(&f.years, "years", 0, "years to run (default: the configured max years)")
	cmd.Flags().StringVar(&f.difficulty, "difficulty", "", "override the configured difficulty preset")
	cmd.Flags().StringVar(&f.plan, "plan", "", "YAML file with per-year decisions")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the year records as JSON")
	return cmd
}

func runSimulate(out io.Writer, root *rootFlags, f *simulateFlags) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	if f.difficulty != "" {
		p, err := config.PresetFor(f.difficulty)
		if err != nil {
			return err
		}
		cfg.Simulation.Difficulty = strings.ToLower(f.difficulty)
		cfg.Simulation.Initial = &p.Initial
		cfg.Simulation.Score = &p.Score
		cfg.Simulation.MaxYears = p.MaxYears
	}
	table, err := cfg.Rules()
	if err != nil {
		return err
	}

	years, err := f.decisions()
	if err != nil {
		return err
	}

	opts := cfg.SessionOptions(table)
	count := f.years
	if count <= 0 {
		count = opts.MaxYears
	}
	if count <= 0 {
		count = len(years)
	}
	if opts.MaxYears > 0 && count > opts.MaxYears {
		opts.MaxYears = count
	}

	sess, err := simulation.NewSession(opts)
	if err != nil {
		return err
	}
	sess.StartSimulation()
	start := sess.Indicators()

	for i := 0; i < count; i++ {
		d := years[min(i, len(years)-1)]
		if _, err := sess.Advance(d); err != nil {
			return fmt.Errorf("year %d: %w", sess.Year(), err)
		}
	}

	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sess.Snapshot())
	}
	return printRun(out, start, indicator.Score(start, scoreParams(opts)), sess.History())
}

func (f *simulateFlags) decisions() ([]decision.Decisions, error) {
	if f.plan != "" {
		b, err := os.ReadFile(f.plan)
		if err != nil {
			return nil, err
		}
		var p plan
		if err := yaml.Unmarshal(b, &p); err != nil {
			return nil, fmt.Errorf("parse plan %s: %w", f.plan, err)
		}
		if len(p.Years) == 0 {
			return nil, fmt.Errorf("plan %s has no years", f.plan)
		}
		for i, d := range p.Years {
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("plan year %d: %w", i+1, err)
			}
		}
		return p.Years, nil
	}
	d, err := decision.Parse(map[string]string{
		string(decision.AxisOSStrategy):     f.os,
		string(decision.AxisHardwarePolicy): f.hardware,
		string(decision.AxisCloudStrategy):  f.cloud,
		string(decision.AxisTraining):       f.training,
	})
	if err != nil {
		return nil, err
	}
	return []decision.Decisions{d}, nil
}

func scoreParams(opts simulation.Options) indicator.ScoreParams {
	if opts.Score != nil {
		return *opts.Score
	}
	return indicator.DefaultScoreParams()
}

func printRun(out io.Writer, start indicator.Indicators, startScore int, history []simulation.YearRecord) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "YEAR\tOS\tHARDWARE\tCLOUD\tTRAINING\tINCL\tRESP\tSUST\tBIGTECH\tSCORE")
	fmt.Fprintf(tw, "0\t-\t-\t-\t-\t%d\t%d\t%d\t%d\t%d\n",
		start.Inclusion, start.Responsibility, start.Sustainability, start.BigTechDependence, startScore)
	for _, rec := range history {
		a := rec.After
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			rec.Year,
			rec.Decisions.OSStrategy, rec.Decisions.HardwarePolicy, rec.Decisions.CloudStrategy, rec.Decisions.Training,
			a.Inclusion, a.Responsibility, a.Sustainability, a.BigTechDependence, rec.Score)
	}
	return tw.Flush()
}

func printRules(out io.Writer, table rules.Table) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AXIS\tOPTION\tDELTA\tWHEN")
	for _, a := range decision.Axes() {
		for _, opt := range decision.Options(a) {
			if len(table[a][opt]) == 0 {
				fmt.Fprintf(tw, "%s\t%s\t0\t-\n", a, opt)
			}
			for _, eff := range table[a][opt] {
				when := "-"
				if eff.When != nil {
					when = fmt.Sprintf("%s=%s", eff.When.Axis, eff.When.Option)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a, opt, formatDelta(eff.Delta), when)
			}
		}
	}
	return tw.Flush()
}

func formatDelta(dl indicator.Delta) string {
	if dl.IsZero() {
		return "0"
	}
	parts := []string{}
	for _, k := range indicator.Kinds() {
		if v := dl.Get(k); v != 0 {
			parts = append(parts, fmt.Sprintf("%s%+d", k, v))
		}
	}
	return strings.Join(parts, " ")
}
