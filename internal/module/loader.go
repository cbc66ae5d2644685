package module

import "github.com/skepa-lang/skepa/internal/errcode"

// Load discovers, parses, and orders the module graph rooted at entry,
// and resolves every module's import bindings against the computed
// export maps. It is the single entry point a driver needs (spec §4.2).
func Load(entry string) (*Graph, map[Id]*Bindings, []*errcode.CodedError) {
	g, errs := NewResolver().Build(entry)
	if len(errs) > 0 {
		return nil, nil, errs
	}

	bindings := make(map[Id]*Bindings, len(g.Units))
	for id, u := range g.Units {
		b, berrs := ResolveBindings(u, g.Exports)
		if len(berrs) > 0 {
			return nil, nil, berrs
		}
		bindings[id] = b
	}

	return g, bindings, nil
}
