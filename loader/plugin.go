package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"plugin"
	"strings"
	"sync"

	"github.com/itayaharoni2/lineflow/internal/errs"
)

// Plugin resolves stage names to out-of-process-authored Go plugins
// (.so files built with `go build -buildmode=plugin`), the direct
// ecosystem equivalent of the dlopen/dlsym boundary
// original_source/plugins/ crosses for each stage's shared object.
//
// A bare name (no "/") resolves to Dir/<name>.so; a name containing "/"
// is used as the plugin path verbatim.
type Plugin struct {
	Dir string

	mu      sync.Mutex
	handles []*plugin.Plugin
}

// pluginSymbols is the five-entry-point ABI every .so must export,
// matching the capitalized exported-symbol convention plugin.Lookup
// requires and, in spirit, the five C function pointers
// original_source/plugins/plugin_common.h declares.
type pluginSymbols struct {
	Init         func(queueSize int) error
	Attach       func(next PlaceWorkFunc) error
	PlaceWork    func(line string) error
	WaitFinished func() error
	Fini         func() error
}

// pluginModule adapts a resolved pluginSymbols set to StageModule.
type pluginModule struct {
	name string
	sym  pluginSymbols
}

func (m *pluginModule) Name() string                    { return m.name }
func (m *pluginModule) Init(queueSize int) error        { return m.sym.Init(queueSize) }
func (m *pluginModule) Attach(next PlaceWorkFunc) error { return m.sym.Attach(next) }
func (m *pluginModule) PlaceWork(line string) error     { return m.sym.PlaceWork(line) }
func (m *pluginModule) WaitFinished() error             { return m.sym.WaitFinished() }
func (m *pluginModule) Fini() error                     { return m.sym.Fini() }

// Load opens the .so resolved from name and looks up its five exported
// symbols. Any missing or wrong-typed symbol is reported as
// errs.ErrLoad.
func (p *Plugin) Load(_ context.Context, name string) (StageModule, error) {
	path := name
	if !strings.Contains(name, "/") {
		path = filepath.Join(p.Dir, name+".so")
	}

	plug, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: open %s: %w", name, path, errs.ErrLoad)
	}

	sym, err := lookupSymbols(plug)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: %w: %v", name, errs.ErrLoad, err)
	}

	p.mu.Lock()
	p.handles = append(p.handles, plug)
	p.mu.Unlock()

	return &pluginModule{name: name, sym: *sym}, nil
}

func lookupSymbols(plug *plugin.Plugin) (*pluginSymbols, error) {
	var sym pluginSymbols

	initSym, err := plug.Lookup("PluginInit")
	if err != nil {
		return nil, err
	}
	init, ok := initSym.(func(int) error)
	if !ok {
		return nil, fmt.Errorf("PluginInit has unexpected type %T", initSym)
	}
	sym.Init = init

	attachSym, err := plug.Lookup("PluginAttach")
	if err != nil {
		return nil, err
	}
	attach, ok := attachSym.(func(PlaceWorkFunc) error)
	if !ok {
		return nil, fmt.Errorf("PluginAttach has unexpected type %T", attachSym)
	}
	sym.Attach = attach

	placeSym, err := plug.Lookup("PluginPlaceWork")
	if err != nil {
		return nil, err
	}
	place, ok := placeSym.(func(string) error)
	if !ok {
		return nil, fmt.Errorf("PluginPlaceWork has unexpected type %T", placeSym)
	}
	sym.PlaceWork = place

	waitSym, err := plug.Lookup("PluginWaitFinished")
	if err != nil {
		return nil, err
	}
	wait, ok := waitSym.(func() error)
	if !ok {
		return nil, fmt.Errorf("PluginWaitFinished has unexpected type %T", waitSym)
	}
	sym.WaitFinished = wait

	finiSym, err := plug.Lookup("PluginFini")
	if err != nil {
		return nil, err
	}
	fini, ok := finiSym.(func() error)
	if !ok {
		return nil, fmt.Errorf("PluginFini has unexpected type %T", finiSym)
	}
	sym.Fini = fini

	return &sym, nil
}

// Close releases Plugin's own bookkeeping. Go's plugin package has no
// unload operation: opened .so files stay mapped into the process for
// its lifetime, matching upstream's documented behavior. Close only
// drops Plugin's references to the handles it opened, in reverse order
// to mirror original_source/main.c's dlclose teardown sequence.
func (p *Plugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.handles) - 1; i >= 0; i-- {
		p.handles[i] = nil
	}
	p.handles = nil
	return nil
}
