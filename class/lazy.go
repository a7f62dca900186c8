package class

import "sync"

// NewLazy returns a Lazy registering the Spec returned by spec into r on first use.
// If r is nil, Default is used.
func NewLazy(r *Registry, spec func() Spec) *Lazy {
	if r == nil {
		r = Default
	}
	return &Lazy{
		registry: r,
		spec:     spec,
	}
}

// Lazy is a class that is registered the first time it is asked for.
// Superclasses built with their own Lazy are registered first, from inside spec.
type Lazy struct {
	once     sync.Once
	registry *Registry
	spec     func() Spec
	class    *Class
	err      error
}

// Get returns the class, registering it if needed.
func (l *Lazy) Get() (*Class, error) {
	l.once.Do(func() {
		l.class, l.err = l.registry.Register(l.spec())
	})
	return l.class, l.err
}

// MustGet is Get, panicking on registration errors.
func (l *Lazy) MustGet() *Class {
	c, err := l.Get()
	if err != nil {
		panic(err)
	}
	return c
}
