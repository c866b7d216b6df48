package schema

// Registry is a named collection of schema trees, standing in for an
// external schema catalog treated as a black box: callers look a schema
// up by a stable name instead of constructing one inline, addressing a
// record kind by name rather than by Go type.
type Registry struct {
	byName map[string]*Node
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Node)}
}

// Register adds n under name, overwriting any prior entry of the same
// name. Registration order is preserved for Names.
func (r *Registry) Register(name string, n *Node) {
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	r.byName[name] = n
}

// Lookup returns the schema registered under name, or nil and false.
func (r *Registry) Lookup(name string) (*Node, bool) {
	n, ok := r.byName[name]
	return n, ok
}

// Names returns the registered schema names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// DefaultRegistry builds the small set of fixture schemas shared by the
// CLIs and the TUI fixture browser: a number, a string, a tri-state
// optional record, a discriminated union, an array, a singly-linked
// list built through Lazy, a string-keyed record, and a number-keyed map.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register("integer", Number())
	r.Register("string", String())

	r.Register("optional-field", Object(
		Field{Name: "a", Schema: String()},
		Field{Name: "b", Schema: Optional(Number())},
	))

	r.Register("discriminated-union", DiscriminatedUnion("t",
		Object(
			Field{Name: "t", Schema: Literal("p")},
			Field{Name: "n", Schema: Number()},
		),
		Object(
			Field{Name: "t", Schema: Literal("q")},
		),
	))

	r.Register("array-of-number", Array(Number()))

	var node *Node
	node = Lazy(func() *Node {
		return Object(
			Field{Name: "v", Schema: Number()},
			Field{Name: "next", Schema: Optional(Nullable(node))},
		)
	})
	r.Register("linked-list-node", node)

	r.Register("string-record", Record(Number()))
	r.Register("int-keyed-map", Map(Number(), String()))

	return r
}
