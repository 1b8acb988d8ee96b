package routes

// Group represents a collection of routes under a common URL prefix.
// Groups can contain child groups for hierarchical route organization.
type Group struct {
	Prefix      string
	Description string
	Routes      []Route
	Children    []Group
}

// Flatten returns the group's routes and those of its children with the
// prefixes applied to each pattern.
func (g Group) Flatten() []Route {
	return g.flatten("")
}

// Patterns returns the fully prefixed "METHOD /path" patterns of the group and its children.
func (g Group) Patterns() []string {
	flat := g.Flatten()
	out := make([]string, len(flat))
	for i, r := range flat {
		out[i] = r.String()
	}
	return out
}

func (g Group) flatten(parent string) []Route {
	prefix := parent + g.Prefix
	out := make([]Route, 0, len(g.Routes))
	for _, r := range g.Routes {
		r.Pattern = prefix + r.Pattern
		out = append(out, r)
	}
	for _, child := range g.Children {
		out = append(out, child.flatten(prefix)...)
	}
	return out
}
