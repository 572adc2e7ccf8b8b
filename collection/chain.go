package collection

import (
	"context"

	"github.com/kbukum/stepflow/errors"
)

type stageKind int

const (
	stageMap stageKind = iota
	stageFlatMap
	stageSelect
	stageReject
	stageMapResults
	stageTake
	stageDrop
	stageWithIndex
)

type stage struct {
	kind  stageKind
	block Block
	n     int
}

// keepsShape reports whether the stage passes source elements through
// unchanged, so a map source can be rebuilt from its output.
func (s stage) keepsShape() bool {
	return s.kind == stageSelect || s.kind == stageReject
}

type terminalKind int

const (
	termAll terminalKind = iota
	termAny
	termNone
	termDetect
	termFirst
	termFirstN
	termCount
	termInclude
)

type terminal struct {
	kind   terminalKind
	name   string
	block  Block
	n      int
	value  any
	ifNone func(context.Context) (any, error)
}

// DetectOption configures Detect.
type DetectOption func(*terminal)

// IfNone supplies the value Detect returns when no element matches. The
// value is interpreted like a block return value.
func IfNone(fn func(ctx context.Context) (any, error)) DetectOption {
	return func(t *terminal) { t.ifNone = fn }
}

// guard returns a copy of c, with a sticky error when op follows a terminal
// operation.
func (c *Collection) guard(op string) (*Collection, bool) {
	n := c.clone()
	if n.err != nil {
		return n, false
	}
	if n.terminal != nil {
		n.err = errors.AlreadyUsedTerminalChaining(n.terminal.name, op)
		return n, false
	}
	return n, true
}

func (c *Collection) addStage(op string, s stage) *Collection {
	n, ok := c.guard(op)
	if ok {
		n.stages = append(n.stages, s)
	}
	return n
}

// counted records INVALID_INPUT for a negative count, then adds the
// operation through add.
func (c *Collection) counted(op string, n int, add func() *Collection) *Collection {
	if n >= 0 {
		return add()
	}
	nc, ok := c.guard(op)
	if ok {
		nc.err = errors.NegativeCount(op, n)
	}
	return nc
}

func (c *Collection) setTerminal(t *terminal) *Collection {
	n, ok := c.guard(t.name)
	if ok {
		n.terminal = t
	}
	return n
}

// --- Non-terminal operations ---

// Map replaces each element with its block value. A nil block keeps the
// element's own interpreted value.
func (c *Collection) Map(block Block) *Collection {
	return c.addStage("map", stage{kind: stageMap, block: block})
}

// Collect is an alias of Map.
func (c *Collection) Collect(block Block) *Collection {
	return c.addStage("collect", stage{kind: stageMap, block: block})
}

// FlatMap is Map with slice values flattened one level.
func (c *Collection) FlatMap(block Block) *Collection {
	return c.addStage("flat_map", stage{kind: stageFlatMap, block: block})
}

// CollectConcat is an alias of FlatMap.
func (c *Collection) CollectConcat(block Block) *Collection {
	return c.addStage("collect_concat", stage{kind: stageFlatMap, block: block})
}

// Select keeps the elements whose block value is truthy.
func (c *Collection) Select(block Block) *Collection {
	return c.addStage("select", stage{kind: stageSelect, block: block})
}

// Filter is an alias of Select.
func (c *Collection) Filter(block Block) *Collection {
	return c.addStage("filter", stage{kind: stageSelect, block: block})
}

// Reject keeps the elements whose block value is falsy.
func (c *Collection) Reject(block Block) *Collection {
	return c.addStage("reject", stage{kind: stageReject, block: block})
}

// MapResults is Map for service calls: a successful bare Result becomes its
// full data map and a failed one becomes nil. Views and step outcomes keep
// their own projection.
func (c *Collection) MapResults(block Block) *Collection {
	return c.addStage("map_results", stage{kind: stageMapResults, block: block})
}

// Take keeps the first n elements. A negative n is INVALID_INPUT.
func (c *Collection) Take(n int) *Collection {
	return c.counted("take", n, func() *Collection {
		return c.addStage("take", stage{kind: stageTake, n: n})
	})
}

// Drop skips the first n elements. A negative n is INVALID_INPUT.
func (c *Collection) Drop(n int) *Collection {
	return c.counted("drop", n, func() *Collection {
		return c.addStage("drop", stage{kind: stageDrop, n: n})
	})
}

// WithIndex pairs each element with its position as sequence.Indexed[any].
func (c *Collection) WithIndex() *Collection {
	return c.addStage("with_index", stage{kind: stageWithIndex})
}

// --- Terminal operations ---

// All succeeds when every block value is truthy. It stops at the first falsy
// one. An empty collection succeeds.
func (c *Collection) All(block Block) *Collection {
	return c.setTerminal(&terminal{kind: termAll, name: "all?", block: block})
}

// Any succeeds when some block value is truthy. It stops at the first truthy
// one. An empty collection fails.
func (c *Collection) Any(block Block) *Collection {
	return c.setTerminal(&terminal{kind: termAny, name: "any?", block: block})
}

// None succeeds when no block value is truthy.
func (c *Collection) None(block Block) *Collection {
	return c.setTerminal(&terminal{kind: termNone, name: "none?", block: block})
}

// Detect returns the first element whose block value is truthy as "value".
func (c *Collection) Detect(block Block, opts ...DetectOption) *Collection {
	t := &terminal{kind: termDetect, name: "detect", block: block}
	for _, opt := range opts {
		opt(t)
	}
	return c.setTerminal(t)
}

// Find is an alias of Detect.
func (c *Collection) Find(block Block, opts ...DetectOption) *Collection {
	t := &terminal{kind: termDetect, name: "find", block: block}
	for _, opt := range opts {
		opt(t)
	}
	return c.setTerminal(t)
}

// First returns the first element as "value" and fails when empty.
func (c *Collection) First() *Collection {
	return c.setTerminal(&terminal{kind: termFirst, name: "first"})
}

// FirstN returns up to n leading elements as "values". A negative n is
// INVALID_INPUT.
func (c *Collection) FirstN(n int) *Collection {
	return c.counted("first", n, func() *Collection {
		return c.setTerminal(&terminal{kind: termFirstN, name: "first", n: n})
	})
}

// Count returns the number of elements as "value", or the number of truthy
// block values when block is not nil.
func (c *Collection) Count(block Block) *Collection {
	return c.setTerminal(&terminal{kind: termCount, name: "count", block: block})
}

// Include succeeds when some element is deeply equal to v.
func (c *Collection) Include(v any) *Collection {
	return c.setTerminal(&terminal{kind: termInclude, name: "include?", value: v})
}
