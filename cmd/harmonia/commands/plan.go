package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jpetrucciani/harmonia/internal/clisupport/arg"
	"github.com/jpetrucciani/harmonia/internal/operations"
)

type PlanCommand struct{}

func init() {
	Register(&PlanCommand{})
}

func (c *PlanCommand) Name() string { return "plan" }

func (c *PlanCommand) Description() string {
	return "Show the changed set, merge order, and constraint violations across the workspace"
}

func (c *PlanCommand) ValidateArgs(p arg.Parsed) error {
	return nil
}

func (c *PlanCommand) Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error {
	deps, err := newOperationDeps(rt)
	if err != nil {
		return err
	}

	plan, err := deps.ComputePlan(ctx, operations.PlanOptions{
		Changed:         changedFunc(rt),
		CurrentVersions: deps.CurrentVersions(),
	})
	if err != nil {
		return err
	}

	if p.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	fmt.Println("changed:")
	for _, id := range plan.Changed {
		fmt.Printf("  %s\n", id)
	}
	fmt.Println("merge order:")
	for _, id := range plan.Order {
		fmt.Printf("  %s\n", id)
	}
	if len(plan.Violations) > 0 {
		fmt.Println("missing dependencies:")
		for _, m := range plan.Violations {
			fmt.Printf("  %s -> %s\n", m.From, m.Edge.Name)
		}
	}
	if len(plan.Constraints.Violations) > 0 {
		fmt.Println("constraint violations:")
		for _, v := range plan.Constraints.Violations {
			fmt.Printf("  %s -> %s (%s)\n", v.From, v.To, v.Kind)
		}
	}
	if len(plan.Constraints.Conflicts) > 0 {
		fmt.Println("coalesced dependency declarations:")
		for _, c := range plan.Constraints.Conflicts {
			fmt.Printf("  %s -> %s: manifest constraint %q kept over workspace-declared depends_on\n", c.Repo, c.Name, c.ManifestConstraint.Raw)
		}
	}
	if len(plan.Constraints.Cycles) > 0 {
		fmt.Println("cycles:")
		for _, cyc := range plan.Constraints.Cycles {
			fmt.Printf("  %v\n", cyc)
		}
	}
	if len(plan.Recommendations) > 0 {
		fmt.Println("recommendations:")
		for _, r := range plan.Recommendations {
			fmt.Printf("  %s\n", r)
		}
	}
	return nil
}
