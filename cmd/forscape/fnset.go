package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"forscape/internal/ast"
	"forscape/internal/types"
)

var fnsetCmd = &cobra.Command{
	Use:   "fnset <ids> [<ids>...]",
	Short: "Build abstract function sets and fold them with union",
	Long: `Each argument is a comma separated list of function definition ids.
The command prints the canonical set of every argument and the union of all
of them, as the type checker would render them.`,
	Example: "  forscape fnset 3,1 2,3",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := foldSets(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, line := range lines {
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

// foldSets interns every argument as a set and returns one line per
// argument followed by the union line.
func foldSets(args []string) ([]string, error) {
	in := types.NewInterner()
	lines := make([]string, 0, len(args)+1)
	var all types.Type
	for i, arg := range args {
		set, err := parseSet(in, arg)
		if err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("%-12s %s", arg, in.TypeString(set)))
		if i == 0 {
			all = set
		} else {
			all = in.Union(all, set)
		}
	}
	lines = append(lines, fmt.Sprintf("%-12s %s (%d candidates)", "union", in.TypeString(all), in.NumElements(all)))
	return lines, nil
}

func parseSet(in *types.Interner, arg string) (types.Type, error) {
	var set types.Type
	fields := strings.Split(arg, ",")
	for i, field := range fields {
		n, err := strconv.ParseUint(strings.TrimSpace(field), 10, 32)
		if err != nil || n == 0 {
			return types.Type{}, fmt.Errorf("invalid function id %q in %q (expected positive integers)", field, arg)
		}
		single := in.MakeSet(ast.NodeID(n))
		if i == 0 {
			set = single
		} else {
			set = in.Union(set, single)
		}
	}
	return set, nil
}
