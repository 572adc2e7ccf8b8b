package flow

import (
	"context"
	"slices"

	"github.com/kbukum/stepflow/errors"
	"github.com/kbukum/stepflow/result"
)

// BranchChain is an if/elsif/else group. Conditions are steps evaluated in
// order until one selects its branch:
//
//   - a normal branch is selected by a success condition
//   - a negated branch is selected by a failure condition
//   - an error condition aborts the whole chain with that Result
//
// Without a selected branch the Else body runs, or, when there is none, the
// chain yields the last evaluated condition Result.
type BranchChain struct {
	branches []branch
	elseBody []Item
	hasElse  bool
	problem  string
}

type branch struct {
	cond    *StepItem
	negated bool
	body    []Item
}

func (b branch) selects(cond result.Result) bool {
	if b.negated {
		return cond.IsFailure()
	}
	return cond.IsSuccess()
}

// If starts a chain whose first branch runs body when cond succeeds.
func If(cond *StepItem, body ...Item) *BranchChain {
	return (&BranchChain{}).add(cond, false, body)
}

// IfNot starts a chain whose first branch runs body when cond fails.
func IfNot(cond *StepItem, body ...Item) *BranchChain {
	return (&BranchChain{}).add(cond, true, body)
}

// Elsif adds a branch selected when cond succeeds.
func (c *BranchChain) Elsif(cond *StepItem, body ...Item) *BranchChain {
	return c.add(cond, false, body)
}

// ElsifNot adds a branch selected when cond fails.
func (c *BranchChain) ElsifNot(cond *StepItem, body ...Item) *BranchChain {
	return c.add(cond, true, body)
}

// Else sets the body run when no branch is selected.
func (c *BranchChain) Else(body ...Item) *BranchChain {
	n := c.clone()
	if n.hasElse && n.problem == "" {
		n.problem = "else declared twice"
	}
	n.hasElse = true
	n.elseBody = slices.Clone(body)
	return n
}

func (c *BranchChain) add(cond *StepItem, negated bool, body []Item) *BranchChain {
	n := c.clone()
	if n.hasElse && n.problem == "" {
		n.problem = "elsif after else"
	}
	n.branches = append(n.branches, branch{cond: cond, negated: negated, body: slices.Clone(body)})
	return n
}

func (c *BranchChain) clone() *BranchChain {
	n := *c
	n.branches = slices.Clone(c.branches)
	n.elseBody = slices.Clone(c.elseBody)
	return &n
}

func (c *BranchChain) prepare(d *Definition, next *int) (Item, error) {
	if c == nil {
		return nil, errors.InvalidDefinition(d.name, "nil branch chain")
	}
	if c.problem != "" {
		return nil, errors.InvalidDefinition(d.name, c.problem)
	}
	if len(c.branches) == 0 {
		return nil, errors.InvalidDefinition(d.name, "branch chain without a condition")
	}
	n := &BranchChain{hasElse: c.hasElse}
	for _, b := range c.branches {
		if b.cond == nil {
			return nil, errors.InvalidDefinition(d.name, "branch without a condition")
		}
		cond, err := b.cond.prepare(d, next)
		if err != nil {
			return nil, err
		}
		body, err := prepareItems(d, b.body, next)
		if err != nil {
			return nil, err
		}
		n.branches = append(n.branches, branch{cond: cond.(*StepItem), negated: b.negated, body: body})
	}
	body, err := prepareItems(d, c.elseBody, next)
	if err != nil {
		return nil, err
	}
	n.elseBody = body
	return n, nil
}

func (c *BranchChain) run(ctx context.Context, inst *Instance) (result.Result, error) {
	var last result.Result
	for _, b := range c.branches {
		if err := ctx.Err(); err != nil {
			return result.Result{}, err
		}
		cond, err := b.cond.run(ctx, inst)
		if err != nil {
			return cond, err
		}
		if cond.IsError() {
			return cond, nil
		}
		last = cond
		if !b.selects(cond) {
			continue
		}
		if len(b.body) == 0 {
			if b.negated {
				return result.Success(), nil
			}
			return cond, nil
		}
		return inst.runItems(ctx, b.body)
	}
	if c.hasElse {
		return inst.runItems(ctx, c.elseBody)
	}
	return last, nil
}
