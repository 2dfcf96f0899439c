package cmd

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/beans/metrics"
)

// NewListCommand lists the registered definitions.
func NewListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the bean definitions found under the scan roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, result, err := buildContainer(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { _ = c.Destroy() }()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSCOPE\tTYPE\tSOURCE")
			for _, def := range c.Definitions() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", def.Name, def.Scope, def.Type, def.Source)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			for _, skipped := range result.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", skipped.Component, skipped.Reason)
			}
			return nil
		},
	}
}

// NewGetCommand resolves one bean and prints its wiring.
func NewGetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Resolve a bean and print its injected dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := buildContainer(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { _ = c.Destroy() }()

			bean, err := c.GetBeanContext(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			singleton, _ := c.IsSingleton(args[0])

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%T) singleton=%t\n", args[0], bean, singleton)
			for _, line := range describeFields(bean) {
				fmt.Fprintf(out, "  %s\n", line)
			}
			return nil
		},
	}
}

// describeFields lists the pointer and interface fields of a bean struct.
func describeFields(bean any) []string {
	v := reflect.ValueOf(bean)
	for v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	var lines []string
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Name == "_" {
			continue
		}
		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.Ptr, reflect.Interface:
			state := "<nil>"
			if !fv.IsNil() {
				state = fmt.Sprintf("%s@%#x", fv.Type(), fv.Pointer())
			}
			lines = append(lines, fmt.Sprintf("%s: %s", f.Name, state))
		}
	}
	return lines
}

// NewStatsCommand pre-instantiates singletons and prints container metrics.
func NewStatsCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Create all singletons and print container statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := buildContainer(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { _ = c.Destroy() }()

			if err := c.PreInstantiateSingletons(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(c.Stats())
			}

			reg := prometheus.NewRegistry()
			if err := reg.Register(metrics.NewCollector(c, "")); err != nil {
				return err
			}
			families, err := reg.Gather()
			if err != nil {
				return err
			}
			sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
			for _, mf := range families {
				for _, m := range mf.GetMetric() {
					value := m.GetGauge().GetValue() + m.GetCounter().GetValue()
					labels := ""
					for _, lp := range m.GetLabel() {
						labels += fmt.Sprintf("{%s=%q}", lp.GetName(), lp.GetValue())
					}
					fmt.Fprintf(out, "%s%s %g\n", mf.GetName(), labels, value)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw stats as JSON")
	return cmd
}
