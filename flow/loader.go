package flow

import (
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/stepflow/errors"
	"github.com/kbukum/stepflow/validation"
)

// Document is the YAML form of a definition:
//
//	name: checkout
//	includes: [validate_order]
//	fault_tolerant: true
//	steps:
//	  - service: reserve_stock
//	    in: {sku: sku}
//	    with: {quantity: 1}
//	    out_as: {id: reservation_id}
//	  - branch:
//	      - if: {service: is_premium}
//	        then:
//	          - service: apply_discount
//	      - unless: {method: in_stock}
//	        then:
//	          - service: backorder
//	    else:
//	      - service: charge_card
//
// Steps of included documents run before the document's own steps.
type Document struct {
	Name          string    `yaml:"name" validate:"required"`
	Description   string    `yaml:"description"`
	Includes      []string  `yaml:"includes" validate:"dive,required"`
	FaultTolerant bool      `yaml:"fault_tolerant"`
	Steps         []StepDoc `yaml:"steps" validate:"dive"`
}

// StepDoc is a service step, a method step or a branch chain.
type StepDoc struct {
	Service string            `yaml:"service,omitempty"`
	Method  string            `yaml:"method,omitempty"`
	In      map[string]string `yaml:"in,omitempty"`
	With    map[string]any    `yaml:"with,omitempty"`
	Out     []string          `yaml:"out,omitempty" validate:"dive,required"`
	OutAs   map[string]string `yaml:"out_as,omitempty" validate:"dive,keys,required,endkeys,required"`
	Branch  []BranchDoc       `yaml:"branch,omitempty" validate:"dive"`
	Else    []StepDoc         `yaml:"else,omitempty" validate:"dive"`
}

// BranchDoc is one branch of a chain: If selects on success, Unless on
// failure.
type BranchDoc struct {
	If     *StepDoc  `yaml:"if,omitempty"`
	Unless *StepDoc  `yaml:"unless,omitempty"`
	Then   []StepDoc `yaml:"then,omitempty" validate:"dive"`
}

// ParseDocument decodes and validates a YAML document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Validation("parsing definition document").WithCause(err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the struct tags and that every step names exactly one of
// service, method or branch.
func (doc *Document) Validate() error {
	if err := validation.Validate(doc); err != nil {
		return err
	}
	v := validation.New()
	for i, sd := range doc.Steps {
		sd.check(v.Index("steps", i))
	}
	return v.Err()
}

func (sd *StepDoc) check(v *validation.Validator) {
	v.ExactlyOne("", map[string]bool{
		"service": sd.Service != "",
		"method":  sd.Method != "",
		"branch":  len(sd.Branch) > 0,
	})
	if len(sd.Branch) == 0 {
		v.Custom(len(sd.Else) == 0, "else", "requires branch")
		return
	}
	v.Custom(len(sd.In)+len(sd.With)+len(sd.Out)+len(sd.OutAs) == 0, "", "a branch chain has no bindings")
	for i, bd := range sd.Branch {
		bv := v.Index("branch", i)
		bv.ExactlyOne("", map[string]bool{"if": bd.If != nil, "unless": bd.Unless != nil})
		if cond := bd.condition(); cond != nil {
			bv.Custom(len(cond.Branch) == 0, "", "a condition must be a service or method step")
			cond.check(bv.At("condition"))
		}
		for j := range bd.Then {
			bd.Then[j].check(bv.Index("then", j))
		}
	}
	for i := range sd.Else {
		sd.Else[i].check(v.Index("else", i))
	}
}

func (bd *BranchDoc) condition() *StepDoc {
	if bd.If != nil {
		return bd.If
	}
	return bd.Unless
}

// Loader loads documents by name.
type Loader interface {
	Load(name string) (*Document, error)
}

// FileLoader loads documents from {name}.yaml or {name}.yml files below a
// list of directories, searched in order.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader searching dirs.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load returns the first document named name. A file that exists but does
// not parse is an error; a name found nowhere fails with
// DEFINITION_NOT_FOUND.
func (l *FileLoader) Load(name string) (*Document, error) {
	for _, dir := range l.dirs {
		path, err := findDocument(dir, name)
		if err != nil {
			return nil, err
		}
		if path != "" {
			return LoadDocument(path)
		}
	}
	return nil, errors.DefinitionNotFound(name, l.dirs)
}

// findDocument looks for the file directly in dir first, then in its
// subdirectories. A missing dir holds nothing.
func findDocument(dir, name string) (string, error) {
	files := []string{name + ".yaml", name + ".yml"}
	for _, f := range files {
		path := filepath.Join(dir, f)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", nil
	}
	var found string
	err := filepath.WalkDir(dir, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !e.IsDir() && slices.Contains(files, e.Name()) {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("searching %s: %w", dir, err)
	}
	return found, nil
}

// LoadDocument reads and parses the document at path.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Build turns a document into a Definition. Includes are resolved through
// loader, services and methods through reg. Options are applied after the
// ones derived from the document.
func Build(doc *Document, reg *Registry, loader Loader, opts ...Option) (*Definition, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	b := &builder{reg: reg, loader: loader, stack: map[string]bool{}, included: map[string]bool{}, methods: map[string]bool{}}
	items, err := b.document(doc)
	if err != nil {
		return nil, err
	}

	all := []Option{Steps(items...)}
	for _, name := range slices.Sorted(maps.Keys(b.methods)) {
		fn, _ := reg.Method(name)
		all = append(all, WithMethod(name, fn))
	}
	if doc.FaultTolerant {
		all = append(all, WithFaultTolerance())
	}
	return Define(doc.Name, append(all, opts...)...)
}

// LoadDefinition loads the document name and builds it.
func LoadDefinition(name string, reg *Registry, loader Loader, opts ...Option) (*Definition, error) {
	doc, err := loader.Load(name)
	if err != nil {
		return nil, err
	}
	return Build(doc, reg, loader, opts...)
}

type builder struct {
	reg      *Registry
	loader   Loader
	stack    map[string]bool // current include path (cycle detection)
	included map[string]bool // already merged (diamond includes)
	methods  map[string]bool
}

func (b *builder) document(doc *Document) ([]Item, error) {
	if b.stack[doc.Name] {
		return nil, errors.InvalidDefinition(doc.Name, "circular include")
	}
	b.stack[doc.Name] = true
	defer delete(b.stack, doc.Name)

	var items []Item
	for _, name := range doc.Includes {
		if b.included[name] {
			continue
		}
		if b.loader == nil {
			return nil, errors.DefinitionNotFound(name, nil)
		}
		sub, err := b.loader.Load(name)
		if err != nil {
			return nil, fmt.Errorf("loading include %q of %s: %w", name, doc.Name, err)
		}
		subItems, err := b.document(sub)
		if err != nil {
			return nil, err
		}
		items = append(items, subItems...)
	}

	for _, sd := range doc.Steps {
		it, err := b.item(doc.Name, sd)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	b.included[doc.Name] = true
	return items, nil
}

func (b *builder) items(definition string, docs []StepDoc) ([]Item, error) {
	items := make([]Item, 0, len(docs))
	for _, sd := range docs {
		it, err := b.item(definition, sd)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (b *builder) item(definition string, sd StepDoc) (Item, error) {
	if len(sd.Branch) > 0 {
		return b.chain(definition, sd)
	}
	return b.step(definition, sd)
}

func (b *builder) step(definition string, sd StepDoc) (*StepItem, error) {
	opts := bindings(sd)
	switch {
	case sd.Service != "":
		svc, ok := b.reg.Service(sd.Service)
		if !ok {
			return nil, errors.UnknownService(sd.Service)
		}
		return Step(svc, opts...), nil
	case sd.Method != "":
		if _, ok := b.reg.Method(sd.Method); !ok {
			return nil, errors.UnknownMethod(definition, sd.Method)
		}
		b.methods[sd.Method] = true
		return Method(sd.Method, opts...), nil
	}
	return nil, errors.InvalidDefinition(definition, "step without service or method")
}

func (b *builder) chain(definition string, sd StepDoc) (*BranchChain, error) {
	var chain *BranchChain
	for _, bd := range sd.Branch {
		cond := bd.condition()
		if cond == nil {
			return nil, errors.InvalidDefinition(definition, "branch without a condition")
		}
		step, err := b.step(definition, *cond)
		if err != nil {
			return nil, err
		}
		body, err := b.items(definition, bd.Then)
		if err != nil {
			return nil, err
		}
		negated := bd.If == nil
		switch {
		case chain == nil && negated:
			chain = IfNot(step, body...)
		case chain == nil:
			chain = If(step, body...)
		case negated:
			chain = chain.ElsifNot(step, body...)
		default:
			chain = chain.Elsif(step, body...)
		}
	}
	if len(sd.Else) > 0 {
		body, err := b.items(definition, sd.Else)
		if err != nil {
			return nil, err
		}
		chain = chain.Else(body...)
	}
	return chain, nil
}

// bindings maps in (argument -> attribute), with (argument -> constant), out
// and out_as onto step options in a stable order.
func bindings(sd StepDoc) []StepOption {
	var opts []StepOption
	for _, name := range slices.Sorted(maps.Keys(sd.In)) {
		opts = append(opts, In(name, Attr(sd.In[name])))
	}
	for _, name := range slices.Sorted(maps.Keys(sd.With)) {
		opts = append(opts, InValue(name, sd.With[name]))
	}
	if len(sd.Out) > 0 {
		opts = append(opts, Out(sd.Out...))
	}
	if len(sd.OutAs) > 0 {
		opts = append(opts, OutAs(sd.OutAs))
	}
	return opts
}
