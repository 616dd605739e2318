package license

import (
	"maps"
	"sync"
)

// Inventory collects the licenses identified by a Checker, by manifest path then package.
// It is safe for concurrent use.
type Inventory struct {
	mu       sync.Mutex
	licenses map[string]map[string]string
}

func NewInventory() *Inventory {
	return &Inventory{licenses: map[string]map[string]string{}}
}

func (i *Inventory) Record(path, pkg, id string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.licenses[path] == nil {
		i.licenses[path] = map[string]string{}
	}
	i.licenses[path][pkg] = id
}

// Licenses returns a copy of the recorded licenses.
func (i *Inventory) Licenses() map[string]map[string]string {
	i.mu.Lock()
	defer i.mu.Unlock()
	result := make(map[string]map[string]string, len(i.licenses))
	for path, pkgs := range i.licenses {
		result[path] = maps.Clone(pkgs)
	}
	return result
}
