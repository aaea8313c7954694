package model

import (
	"sync"

	"github.com/Brownie44l1/aquasense/internal/segment"
	"golang.org/x/sync/singleflight"
)

// ServerLoader opens a Server by name. *Loader implements it.
type ServerLoader interface {
	Load(name string) (*Server, error)
}

// Cache keeps one Server per architecture. Concurrent first requests for the
// same name share a single load.
type Cache struct {
	loader ServerLoader
	group  singleflight.Group

	mu      sync.RWMutex
	servers map[Name]*Server
}

func NewCache(loader ServerLoader) *Cache {
	return &Cache{
		loader:  loader,
		servers: make(map[Name]*Server),
	}
}

// Get returns the loaded server for name, loading it on first use. Failed
// loads are not cached.
func (c *Cache) Get(input string) (*Server, error) {
	name, err := ParseName(input)
	if err != nil {
		return nil, &LoadError{Name: Name(input), Err: err}
	}

	c.mu.RLock()
	server, ok := c.servers[name]
	c.mu.RUnlock()
	if ok {
		return server, nil
	}

	v, err, _ := c.group.Do(string(name), func() (interface{}, error) {
		c.mu.RLock()
		server, ok := c.servers[name]
		c.mu.RUnlock()
		if ok {
			return server, nil
		}

		server, err := c.loader.Load(string(name))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.servers[name] = server
		c.mu.Unlock()
		return server, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Server), nil
}

// Model is Get typed for the segmentation pipeline.
func (c *Cache) Model(name string) (segment.Model, error) {
	server, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// Loaded lists the names currently held.
func (c *Cache) Loaded() []Name {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]Name, 0, len(c.servers))
	for _, name := range Names() {
		if _, ok := c.servers[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Close closes every loaded server.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, server := range c.servers {
		server.Close()
		delete(c.servers, name)
	}
}
