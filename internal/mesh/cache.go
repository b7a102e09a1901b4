package mesh

import "sync"

// Cache memoises canonical cylinders by spec. It is safe for concurrent use.
type Cache struct {
	mu     sync.Mutex
	meshes map[CylinderSpec]*Mesh
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{meshes: make(map[CylinderSpec]*Mesh)}
}

// Cylinder returns the shared canonical cylinder for spec, building it on
// first use. Invalid specs are never cached.
func (c *Cache) Cylinder(spec CylinderSpec) (*Mesh, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.meshes[spec]; ok {
		return m, nil
	}
	m, err := NewCylinder(spec)
	if err != nil {
		return nil, err
	}
	c.meshes[spec] = m
	return m, nil
}

// Len returns the number of cached meshes.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.meshes)
}
