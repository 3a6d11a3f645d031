package analysis

// LookupTable resolves a raw code against an external code-to-label table.
// Implementations return the label, or the code unchanged on a miss.
type LookupTable interface {
	Lookup(table, code string) string
}

// Lookup replaces each content value with its label from the configured
// table collaborator. The table name comes from the field definition,
// defaulting to the field name. Without a table the analyzer is a
// passthrough. Standard first stage of the values chain, before lowercasing.
type Lookup struct {
	Table LookupTable
}

func (Lookup) Name() string { return "lookup" }

func (l Lookup) Analyze(d *FieldData) {
	if l.Table == nil {
		return
	}
	table := ""
	if d.Field != nil {
		table = d.Field.Lookup
		if table == "" {
			table = d.Field.Name
		}
	}
	for i, v := range d.Content {
		d.Content[i] = l.Table.Lookup(table, scalarString(v))
	}
}

// Keywords emits one exact-match keyword per distinct content value,
// preserving first-seen order. Runs after lookup and lowercasing in the
// standard values chain.
type Keywords struct{}

func (Keywords) Name() string { return "keywords" }

func (Keywords) Analyze(d *FieldData) {
	seen := make(map[string]struct{}, len(d.Content))
	for _, v := range d.Content {
		s := scalarString(v)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		d.Keywords = append(d.Keywords, s)
	}
}

// Countable emits the number of content values as a sortable attribute,
// used for filtering on multiplicity (e.g. records with more than one
// article).
type Countable struct{}

func (Countable) Name() string { return "countable" }

func (Countable) Analyze(d *FieldData) {
	d.Attributes = append(d.Attributes, len(d.Content))
}
