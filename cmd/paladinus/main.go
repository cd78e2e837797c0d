// Command paladinus solves non-deterministic planning problems from the
// command line.
//
//	paladinus solve builtin:tireworld --print-policy
//	paladinus solve task.yaml -s ITERATIVE_DFS_PRUNING --heuristic HMAX -t 30s
//	paladinus batch a.yaml b.yaml --store sqlite --dsn policies.db
//	paladinus show --store sqlite --dsn policies.db
//
// The exit status is 0 when a policy is proven, 1 when none exists, 2 on
// timeout, 4 when the heuristic cannot handle the problem's axioms and 3 for
// any other error.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ramonpereira/paladinus-sub001/heuristic"
	"github.com/ramonpereira/paladinus-sub001/state"
)

// problemHandle is a loaded problem with the heuristic built for it.
type problemHandle struct {
	problem   state.Problem
	heuristic heuristic.Heuristic
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, exit.msg)
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(3)
	}
}
