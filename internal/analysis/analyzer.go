package analysis

import (
	"github.com/bibliofonds/recindex/pkg/errors"
)

// Analyzer is a single transformation stage over a FieldData. Analyzers
// side-effect only the bins they own and never assume a specific predecessor
// beyond their documented preconditions.
type Analyzer interface {
	Name() string
	Analyze(d *FieldData)
}

// Chain is an ordered sequence of analyzers. Execution is strictly
// sequential: each stage reads the bins mutated by its predecessors.
type Chain []Analyzer

// Run invokes every analyzer in declared order against d.
func (c Chain) Run(d *FieldData) {
	for _, a := range c {
		a.Analyze(d)
	}
}

// Factory builds a fresh analyzer instance.
type Factory func() Analyzer

// Registry resolves analyzer identifiers to instances. Composite
// identifiers name pre-built sub-chains that are flattened into the parent
// chain at resolution time, never at run time. A Registry is built once at
// startup and read-only afterwards.
type Registry struct {
	factories  map[string]Factory
	composites map[string][]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories:  make(map[string]Factory),
		composites: make(map[string][]string),
	}
}

// Register binds an analyzer identifier to its factory.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// RegisterComposite binds an identifier to an ordered sub-chain of other
// identifiers.
func (r *Registry) RegisterComposite(name string, sub []string) {
	r.composites[name] = sub
}

// Resolve flattens and instantiates the configured chain. Unresolved
// identifiers fail with ErrAnalyzerNotFound; this happens at configuration
// time, before any document is processed.
func (r *Registry) Resolve(chain []string) (Chain, error) {
	var out Chain
	for _, id := range chain {
		if sub, ok := r.composites[id]; ok {
			expanded, err := r.Resolve(sub)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			continue
		}
		factory, ok := r.factories[id]
		if !ok {
			return nil, errors.Newf(errors.ErrAnalyzerNotFound, "analyzer %q is not registered", id)
		}
		out = append(out, factory())
	}
	return out, nil
}

// Options configures the built-in analyzer set.
type Options struct {
	// StemLanguage is the snowball language for the stem analyzer
	// (english, french, spanish, ...). Empty defaults to french.
	StemLanguage string
	// Lookup is the code-to-label table collaborator used by the lookup
	// analyzer. Nil makes lookup a passthrough.
	Lookup LookupTable
}

// DefaultRegistry builds a registry holding the complete built-in analyzer
// set plus the standard composite chains.
func DefaultRegistry(opts Options) *Registry {
	r := NewRegistry()

	r.Register("lowercase", func() Analyzer { return Lowercase{} })
	r.Register("words", func() Analyzer { return Words{} })
	r.Register("phrases", func() Analyzer { return Phrases{} })
	r.Register("remove-stopwords", func() Analyzer { return RemoveStopwords{} })
	r.Register("stem", func() Analyzer { return NewStem(opts.StemLanguage) })
	r.Register("spellings", func() Analyzer { return Spellings{} })
	r.Register("boolean", func() Analyzer { return NewBoolean() })
	r.Register("boolean-extended", func() Analyzer { return NewBooleanExtended() })
	r.Register("integer", func() Analyzer { return Integer{} })
	r.Register("date", func() Analyzer { return Date{} })
	r.Register("isbn", func() Analyzer { return ISBN{} })
	r.Register("lookup", func() Analyzer { return Lookup{Table: opts.Lookup} })
	r.Register("keywords", func() Analyzer { return Keywords{} })
	r.Register("countable", func() Analyzer { return Countable{} })

	r.RegisterComposite("standard-text", []string{"lowercase", "phrases", "spellings"})
	r.RegisterComposite("standard-values", []string{"lookup", "lowercase", "phrases", "spellings", "keywords", "countable"})

	return r
}
