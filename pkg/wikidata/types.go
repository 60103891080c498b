package wikidata

// RawResultSet is the SPARQL 1.1 JSON results document.
type RawResultSet struct {
	Head    Head     `json:"head"`
	Results *Results `json:"results"`
}

// Head lists the variables selected by the query.
type Head struct {
	Vars []string `json:"vars"`
}

// Results wraps the bindings array.
type Results struct {
	Bindings []Binding `json:"bindings"`
}

// Binding is one result row: variable name to bound term. Unbound variables are absent.
type Binding map[string]Term

// Term is a single bound RDF term.
type Term struct {
	Type     string `json:"type"` // uri, literal, bnode
	Value    string `json:"value"`
	XMLLang  string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Bindings returns the result rows, nil-safe.
func (r *RawResultSet) Bindings() []Binding {
	if r == nil || r.Results == nil {
		return nil
	}
	return r.Results.Bindings
}

// Len returns the number of raw bindings.
func (r *RawResultSet) Len() int {
	return len(r.Bindings())
}

// Value returns a pointer to the value bound to name, or nil when unbound.
func (b Binding) Value(name string) *string {
	t, ok := b[name]
	if !ok {
		return nil
	}
	v := t.Value
	return &v
}
