package driver

import (
	"forscape/internal/ast"
	"forscape/internal/fixture"
	"forscape/internal/source"
	"forscape/internal/symbols"
	"forscape/internal/types"
)

// OverloadSet is the function-set type of a name bound by one or more
// algorithm definitions in the same scope.
type OverloadSet struct {
	Name        string
	Scope       symbols.ScopeIndex
	Type        types.Type
	Definitions []ast.NodeID
}

// OverloadSets groups the algorithms of u by scope and name, in order of
// first definition, and folds a singleton set per definition with Union.
func OverloadSets(u *fixture.Unit, in *types.Interner) []OverloadSet {
	type key struct {
		scope symbols.ScopeIndex
		name  source.StringID
	}
	index := make(map[key]int, len(u.Algorithms))
	var sets []OverloadSet
	for _, alg := range u.Algorithms {
		sym := u.Table.Symbol(alg.Symbol)
		if sym == nil {
			continue
		}
		k := key{scope: sym.Scope, name: sym.Name}
		single := in.MakeSet(alg.Node)
		if i, ok := index[k]; ok {
			set := &sets[i]
			set.Type = in.Union(set.Type, single)
			set.Definitions = append(set.Definitions, alg.Node)
			continue
		}
		index[k] = len(sets)
		sets = append(sets, OverloadSet{
			Name:        u.Table.Name(alg.Symbol),
			Scope:       sym.Scope,
			Type:        single,
			Definitions: []ast.NodeID{alg.Node},
		})
	}
	return sets
}
