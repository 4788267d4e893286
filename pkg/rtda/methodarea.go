package rtda

import (
	"github.com/gojvm/gojvm/internal/jvmerr"
	"github.com/gojvm/gojvm/internal/trace"
	"github.com/gojvm/gojvm/pkg/classfile"
)

// Loader is the subset of classloader.Loader the method area needs:
// reading a named class's bytes off whatever backing store the loader
// uses. It is declared here, not imported from pkg/classloader, so that
// package can depend on rtda without creating an import cycle.
type Loader interface {
	LoadClassFile(name string) (*classfile.ClassFile, error)
	// Identity distinguishes loaders for cache-key purposes; two loaders
	// with the same Identity are treated as the same defining loader.
	Identity() string
}

type classIdentifier struct {
	loaderID string
	name     string
}

// MethodArea is the process-wide registry owning every loaded Klass and
// its backing ClassFile. It is the single point through which classes are
// defined, cached, and resolved by name. External synchronization is the
// caller's responsibility if shared across goroutines (§5).
type MethodArea struct {
	classes map[classIdentifier]*Klass
	loading map[classIdentifier]bool // cycle detection for resolveClass
}

// NewMethodArea returns an empty method area.
func NewMethodArea() *MethodArea {
	return &MethodArea{
		classes: make(map[classIdentifier]*Klass),
		loading: make(map[classIdentifier]bool),
	}
}

// HasClass reports whether (loader, name) is already defined.
func (a *MethodArea) HasClass(loader Loader, name string) bool {
	_, ok := a.classes[classIdentifier{loader.Identity(), name}]
	return ok
}

// GetClass returns the already-defined Klass for (loader, name), or nil.
func (a *MethodArea) GetClass(loader Loader, name string) *Klass {
	return a.classes[classIdentifier{loader.Identity(), name}]
}

// resolveClass loads, defines, links, and caches a class by name under the
// given loader, per §4.3. It is idempotent: a second call for the same
// (loader, name) returns the cached Klass without re-parsing or re-linking.
// A reentrant call for a (loader, name) pair currently being linked — a
// class cycle in the super/interface graph — fails with MalformedClass
// instead of recursing forever (§9 open question 5).
func (a *MethodArea) resolveClass(loader Loader, name string) (*Klass, error) {
	id := classIdentifier{loader.Identity(), name}
	if k, ok := a.classes[id]; ok {
		return k, nil
	}
	if a.loading[id] {
		return nil, jvmerr.New(jvmerr.MalformedClass, "class circularity detected while loading %s", name)
	}
	a.loading[id] = true
	defer delete(a.loading, id)

	cf, err := loader.LoadClassFile(name)
	if err != nil {
		// A failed load must not pollute the cache: neither `classes` nor
		// `loading` retains an entry for this identifier once this return
		// unwinds (the defer above already clears `loading`).
		return nil, jvmerr.Wrap(jvmerr.ClassNotFound, err, "loading class %s", name)
	}

	k := defineKlass(a, loader, cf)

	superName, err := cf.SuperClassName()
	if err != nil {
		return nil, err
	}
	if superName == "" {
		if name != "java/lang/Object" {
			return nil, errNoSuperclass
		}
	} else if superName == "java/lang/Object" {
		// Bootstrap short-circuit, §4.3: java.lang.Object is never loaded or
		// linked as a super, even when a class file names it explicitly.
		k.Super = nil
	} else {
		super, err := a.resolveClass(loader, superName)
		if err != nil {
			return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "linking superclass of %s", name)
		}
		k.Super = super
	}

	ifaceNames, err := cf.InterfaceNames()
	if err != nil {
		return nil, err
	}
	k.Interfaces = make([]*Klass, len(ifaceNames))
	for i, ifaceName := range ifaceNames {
		iface, err := a.resolveClass(loader, ifaceName)
		if err != nil {
			return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "linking interface %s of %s", ifaceName, name)
		}
		k.Interfaces[i] = iface
	}

	a.classes[id] = k
	trace.Info("defined class %s via loader %s", name, loader.Identity())
	return k, nil
}

// ResolveClass is the exported entry point loaders use to trigger loading;
// RuntimeConstantPool.ResolveClass calls the unexported form internally
// via the owning Klass's area reference.
func (a *MethodArea) ResolveClass(loader Loader, name string) (*Klass, error) {
	return a.resolveClass(loader, name)
}

// Reset clears every defined class. Exists for test isolation.
func (a *MethodArea) Reset() {
	a.classes = make(map[classIdentifier]*Klass)
	a.loading = make(map[classIdentifier]bool)
}
