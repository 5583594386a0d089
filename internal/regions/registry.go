// Package regions holds the region hierarchy (region, sub-region,
// sub-sub-region) that spots are filed under.
package regions

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

var ErrUnknownRegion = errors.New("unknown region")

// Node is one level of the hierarchy. Leaf regions have no Children.
type Node struct {
	Name     string  `json:"name"`
	Children []*Node `json:"children,omitempty"`
}

type regionsFile struct {
	Regions []*Node `json:"regions"`
}

type Registry struct {
	mu    sync.RWMutex
	roots []*Node
	index map[string]*Node
}

func NewRegistry(roots []*Node) *Registry {
	r := &Registry{}
	r.Replace(roots)
	return r
}

// LoadFromFile reads a {"regions": [...]} document.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read regions config: %w", err)
	}

	var file regionsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse regions config: %w", err)
	}
	if len(file.Regions) == 0 {
		return nil, errors.New("regions config has no regions")
	}
	return NewRegistry(file.Regions), nil
}

// LoadOrDefault falls back to the built-in tree when path cannot be loaded.
func LoadOrDefault(path string) (*Registry, error) {
	r, err := LoadFromFile(path)
	if err != nil {
		return NewRegistry(Default()), err
	}
	return r, nil
}

// Replace swaps in a new tree.
func (r *Registry) Replace(roots []*Node) {
	index := make(map[string]*Node)
	for _, root := range roots {
		indexNode(index, "", root)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roots = roots
	r.index = index
}

func indexNode(index map[string]*Node, prefix string, n *Node) {
	key := prefix + "/" + n.Name
	index[key] = n
	for _, child := range n.Children {
		indexNode(index, key, child)
	}
}

func pathKey(path ...string) string {
	key := ""
	for _, p := range path {
		if p == "" {
			break
		}
		key += "/" + p
	}
	return key
}

// Tree returns the top-level regions.
func (r *Registry) Tree() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roots
}

// Exists reports whether the region path (region, optional sub, optional sub-sub) is known.
func (r *Registry) Exists(path ...string) bool {
	key := pathKey(path...)
	if key == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[key]
	return ok
}

// Children lists the names directly under path, sorted.
func (r *Registry) Children(path ...string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var nodes []*Node
	if key := pathKey(path...); key == "" {
		nodes = r.roots
	} else {
		n, ok := r.index[key]
		if !ok {
			return nil, ErrUnknownRegion
		}
		nodes = n.Children
	}

	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	sort.Strings(names)
	return names, nil
}

func leaves(names ...string) []*Node {
	out := make([]*Node, len(names))
	for i, n := range names {
		out[i] = &Node{Name: n}
	}
	return out
}

// Default is the tree Waver launched with.
func Default() []*Node {
	return []*Node{
		{
			Name: "Hawaii",
			Children: append([]*Node{
				{Name: "Oʻahu", Children: leaves("North Shore", "South Shore", "East Side", "West Side")},
			}, leaves("Maui", "Kauaʻi", "Island of Hawaiʻi", "Molokaʻi", "Lānaʻi")...),
		},
		{
			Name: "United States",
			Children: append([]*Node{
				{Name: "California", Children: leaves("Los Angeles County", "Orange County", "San Diego County", "Santa Cruz County", "Ventura County")},
			}, leaves("Florida", "New York", "New Jersey", "North Carolina", "South Carolina", "Texas", "Oregon", "Washington")...),
		},
	}
}
