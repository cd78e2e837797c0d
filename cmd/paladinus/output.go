package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/ramonpereira/paladinus-sub001/graph"
	"github.com/ramonpereira/paladinus-sub001/graph/store"
)

// setupColor disables colors unless stdout is a terminal.
func setupColor(noColor bool) {
	fd := os.Stdout.Fd()
	color.NoColor = noColor || !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

func verdict(r graph.Result) string {
	switch r {
	case graph.ResultProven:
		return color.New(color.FgGreen, color.Bold).Sprint(r)
	case graph.ResultDisproven:
		return color.New(color.FgRed, color.Bold).Sprint(r)
	default:
		return color.New(color.FgYellow, color.Bold).Sprint(r)
	}
}

func failure() string {
	return color.New(color.FgRed, color.Bold).Sprint("ERROR")
}

func formatBound(b float64) string {
	if math.IsInf(b, 1) {
		return "inf"
	}
	return strconv.FormatFloat(b, 'g', -1, 64)
}

func printResult(w io.Writer, problemName string, res *graph.SearchResult) {
	fmt.Fprintf(w, "%s %s (run %s)\n", verdict(res.Result), problemName, res.RunID)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	s := res.Stats
	fmt.Fprintf(tw, "  expansions\t%d\n", s.Expansions)
	fmt.Fprintf(tw, "  nodes\t%d\n", s.Nodes)
	fmt.Fprintf(tw, "  rounds\t%d\n", s.Rounds)
	if len(s.Bounds) > 0 {
		fmt.Fprintf(tw, "  last bound\t%s\n", formatBound(s.Bounds[len(s.Bounds)-1]))
	}
	fmt.Fprintf(tw, "  dead ends\t%d\n", s.DeadEnds)
	fmt.Fprintf(tw, "  branching factor\t%.2f\n", s.AvgBranchingFactor)
	fmt.Fprintf(tw, "  duration\t%v\n", s.Duration)
	if res.Policy != nil {
		fmt.Fprintf(tw, "  policy size\t%d\n", res.Policy.Len())
		fmt.Fprintf(tw, "  policy valid\t%v\n", res.Policy.Valid())
	}
	tw.Flush()
}

func printPolicy(w io.Writer, entries []store.PolicyEntry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATE\tOPERATOR\tDISTANCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", e.State, color.CyanString(e.Operator), e.Distance)
	}
	tw.Flush()
}

func printRecords(w io.Writer, recs []store.PolicyRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tPROBLEM\tALGORITHM\tENTRIES\tVALID\tCREATED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%v\t%s\n",
			r.RunID, r.Problem, r.Algorithm, len(r.Entries), r.Valid, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()
}

func printSimulation(w io.Writer, sim graph.Simulation) {
	outcome := color.RedString("did not reach the goal")
	if sim.ReachedGoal {
		outcome = color.GreenString("reached the goal")
	}
	fmt.Fprintf(w, "simulation %s after %d steps\n", outcome, sim.Steps)
	for i, op := range sim.Operators {
		fmt.Fprintf(w, "  %3d  %s\n", i+1, op)
	}
}
