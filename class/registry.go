package class

import (
	"fmt"
	"sort"
	"sync"

	"github.com/stewi1014/siren/encio"
)

// Default is the process-wide registry used by siren unless configured otherwise.
var Default = NewRegistry()

// Register registers spec with the Default registry.
func Register(spec Spec) (*Class, error) {
	return Default.Register(spec)
}

// Lookup finds name in the Default registry.
func Lookup(name string) (*Class, error) {
	return Default.Lookup(name)
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Registry maps type names to their Class.
//
// Reads are lock-free. Registration is guarded by a mutex and re-checks under the lock,
// so concurrent first use of a type from many goroutines yields exactly one Class.
type Registry struct {
	// mu guards inserts and count
	mu sync.Mutex
	// classes maps name to *Class.
	classes sync.Map
	count   int
}

// Register inserts a Class for spec, or returns the existing Class registered under the same name.
// Re-registering a name with a different superclass, interface set, concreteness or category returns ErrInvalidOperation.
func (r *Registry) Register(spec Spec) (*Class, error) {
	if spec.Name == "" {
		return nil, encio.NewError(encio.ErrInvalidOperation, "cannot register a class with an empty name", "")
	}

	if c, ok := r.load(spec.Name); ok {
		return c, checkShape(c, spec)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.load(spec.Name); ok {
		return c, checkShape(c, spec)
	}

	c := newClass(spec)
	r.classes.Store(spec.Name, c)
	r.count++
	return c, nil
}

func checkShape(c *Class, spec Spec) error {
	if c.sameShape(spec) {
		return nil
	}
	return encio.NewError(encio.ErrInvalidOperation, fmt.Sprintf("conflicting registration of %v", spec.Name), "class.(*Registry).Register")
}

func (r *Registry) load(name string) (*Class, bool) {
	v, ok := r.classes.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*Class), true
}

// Lookup returns the Class registered under name.
// Unknown names are reported as ErrCorruptedData, as they are met when an archive names a type this process does not know.
func (r *Registry) Lookup(name string) (*Class, error) {
	if c, ok := r.load(name); ok {
		return c, nil
	}
	return nil, encio.NewError(encio.ErrCorruptedData, fmt.Sprintf("class %q is not registered", name), "")
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.load(name)
	return ok
}

// CanCast reports whether the class registered as name can be cast to target.
// Unregistered names cannot be cast to anything.
func (r *Registry) CanCast(name, target string) bool {
	c, ok := r.load(name)
	return ok && c.CanCast(target)
}

// New instantiates the class registered as name.
func (r *Registry) New(name string) (interface{}, error) {
	c, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return c.New()
}

// Names returns the sorted names of all registered classes.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.Count())
	r.classes.Range(func(key, _ interface{}) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}

// Count returns the number of registered classes.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
