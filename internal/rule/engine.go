package rule

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/scuttlekit/scuttle/internal/model"
)

// Source is the code of one rule module, kept so additional engines
// can be built from the same workspace snapshot.
type Source struct {
	// Name is the module name: the file name without the .js suffix.
	Name string

	// Code is the JavaScript source.
	Code string
}

// LoadSources reads every rule_*.js file in dir. The returned slice is
// sorted by module name so engine construction is deterministic.
func LoadSources(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules directory: %w", err)
	}

	var sources []Source
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "rule_") || !strings.HasSuffix(name, ".js") {
			continue
		}
		code, err := os.ReadFile(filepath.Join(dir, name)) //nolint:gosec // workspace files are user-owned
		if err != nil {
			return nil, fmt.Errorf("failed to read rule %s: %w", name, err)
		}
		sources = append(sources, Source{
			Name: strings.TrimSuffix(name, ".js"),
			Code: string(code),
		})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources, nil
}

// module is one loaded rule file with its resolved functions.
// Functions the file does not define stay nil.
type module struct {
	name     string
	typeID   model.PageTypeID
	vm       *goja.Runtime
	navigate goja.Callable
	parse    goja.Callable
	validate goja.Callable
}

// Engine resolves page types to rule modules and executes their
// functions. An Engine provides a single execution slot: it must not
// be shared across goroutines. Use a Pool for concurrent callers.
type Engine struct {
	modules map[model.PageTypeID]*module

	// execTimeout interrupts a rule function that runs longer than
	// this. Zero disables the interrupt.
	execTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithExecTimeout bounds the wall time of a single rule invocation.
// A rule stuck in a loop is interrupted and reported as
// ErrRuleExecution for that page only.
func WithExecTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.execTimeout = d
	}
}

// NewEngine builds an engine from rule sources. Every module gets its
// own goja runtime, so rules cannot observe each other's globals.
func NewEngine(sources []Source, opts ...Option) (*Engine, error) {
	e := &Engine{modules: make(map[model.PageTypeID]*module, len(sources))}
	for _, opt := range opts {
		opt(e)
	}

	for _, src := range sources {
		mod, err := loadModule(src)
		if err != nil {
			return nil, err
		}
		if prev, ok := e.modules[mod.typeID]; ok {
			return nil, fmt.Errorf("%w: %d declared by both %s and %s",
				ErrDuplicateTypeID, mod.typeID, prev.name, mod.name)
		}
		e.modules[mod.typeID] = mod
	}
	return e, nil
}

// loadModule runs one rule file and resolves its declarations.
func loadModule(src Source) (*module, error) {
	vm := goja.New()
	if _, err := vm.RunScript(src.Name, src.Code); err != nil {
		return nil, fmt.Errorf("failed to load rule %s: %w", src.Name, err)
	}

	typeVal := vm.Get("TYPE_ID")
	if typeVal == nil || goja.IsUndefined(typeVal) || goja.IsNull(typeVal) {
		return nil, fmt.Errorf("rule %s does not declare TYPE_ID", src.Name)
	}
	typeID := model.PageTypeID(typeVal.ToInteger())
	if typeID <= 0 {
		return nil, fmt.Errorf("rule %s declares invalid TYPE_ID %d", src.Name, typeID)
	}

	mod := &module{name: src.Name, typeID: typeID, vm: vm}
	if fn, ok := goja.AssertFunction(vm.Get("navigate")); ok {
		mod.navigate = fn
	}
	if fn, ok := goja.AssertFunction(vm.Get("parse")); ok {
		mod.parse = fn
	}
	if fn, ok := goja.AssertFunction(vm.Get("validate")); ok {
		mod.validate = fn
	}
	return mod, nil
}

// ModuleInfo describes a loaded rule module for display.
type ModuleInfo struct {
	Name        string
	TypeID      model.PageTypeID
	HasNavigate bool
	HasParse    bool
	HasValidate bool
}

// Modules lists the loaded modules ordered by type id.
func (e *Engine) Modules() []ModuleInfo {
	infos := make([]ModuleInfo, 0, len(e.modules))
	for _, mod := range e.modules {
		infos = append(infos, ModuleInfo{
			Name:        mod.name,
			TypeID:      mod.typeID,
			HasNavigate: mod.navigate != nil,
			HasParse:    mod.parse != nil,
			HasValidate: mod.validate != nil,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].TypeID < infos[j].TypeID })
	return infos
}

// HasNavigate reports whether a navigate function exists for the type.
func (e *Engine) HasNavigate(typeID model.PageTypeID) bool {
	mod, ok := e.modules[typeID]
	return ok && mod.navigate != nil
}

// HasParse reports whether a parse function exists for the type.
func (e *Engine) HasParse(typeID model.PageTypeID) bool {
	mod, ok := e.modules[typeID]
	return ok && mod.parse != nil
}

// Navigate invokes the navigate rule for the page type and returns the
// raw edges it emitted. URLs come back exactly as the rule produced
// them; normalization is the navigator's job.
func (e *Engine) Navigate(typeID model.PageTypeID, content string) ([]model.Edge, error) {
	mod, ok := e.modules[typeID]
	if !ok || mod.navigate == nil {
		return nil, fmt.Errorf("navigate for type %d: %w", typeID, ErrNoRule)
	}

	result, err := e.call(mod, mod.navigate, content)
	if err != nil {
		return nil, fmt.Errorf("navigate for type %d: %w", typeID, err)
	}
	edges, err := edgesFromValue(result)
	if err != nil {
		return nil, fmt.Errorf("navigate for type %d: %w", typeID, err)
	}
	return edges, nil
}

// Parse invokes the parse rule for the page type and returns the flat
// key/value pairs it emitted, in property order. How repeated groups
// are flattened into keys is the rule author's convention; the engine
// only requires string keys and string values.
func (e *Engine) Parse(typeID model.PageTypeID, content string) ([]model.KV, error) {
	mod, ok := e.modules[typeID]
	if !ok || mod.parse == nil {
		return nil, fmt.Errorf("parse for type %d: %w", typeID, ErrNoRule)
	}

	result, err := e.call(mod, mod.parse, content)
	if err != nil {
		return nil, fmt.Errorf("parse for type %d: %w", typeID, err)
	}
	kvs, err := kvsFromValue(result)
	if err != nil {
		return nil, fmt.Errorf("parse for type %d: %w", typeID, err)
	}
	return kvs, nil
}

// Validate invokes the validate rule for the page type. Types without
// a validate function accept everything.
func (e *Engine) Validate(typeID model.PageTypeID, content string) (bool, error) {
	mod, ok := e.modules[typeID]
	if !ok || mod.validate == nil {
		return true, nil
	}

	result, err := e.call(mod, mod.validate, content)
	if err != nil {
		return false, fmt.Errorf("validate for type %d: %w", typeID, err)
	}
	return result.ToBoolean(), nil
}

// call invokes a rule function with the page content, converting
// exceptions, interrupts, and runtime panics into ErrRuleExecution.
func (e *Engine) call(mod *module, fn goja.Callable, content string) (result goja.Value, err error) {
	if e.execTimeout > 0 {
		timer := time.AfterFunc(e.execTimeout, func() {
			mod.vm.Interrupt("rule timeout")
		})
		defer func() {
			timer.Stop()
			mod.vm.ClearInterrupt()
		}()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRuleExecution, r)
		}
	}()

	result, err = fn(goja.Undefined(), mod.vm.ToValue(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuleExecution, err)
	}
	return result, nil
}

// edgesFromValue checks the navigate output schema: an array of
// [url, typeID] pairs where url is a string and typeID a positive
// integer.
func edgesFromValue(v goja.Value) ([]model.Edge, error) {
	exported, ok := v.Export().([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an array of [url, type] pairs, got %s",
			ErrRuleOutput, valueKind(v))
	}

	edges := make([]model.Edge, 0, len(exported))
	for i, item := range exported {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%w: element %d is not a [url, type] pair", ErrRuleOutput, i)
		}
		url, ok := pair[0].(string)
		if !ok {
			return nil, fmt.Errorf("%w: element %d url is not a string", ErrRuleOutput, i)
		}
		typeID, ok := intFromExport(pair[1])
		if !ok || typeID <= 0 {
			return nil, fmt.Errorf("%w: element %d type id is not a positive integer", ErrRuleOutput, i)
		}
		edges = append(edges, model.Edge{URL: url, TypeID: model.PageTypeID(typeID)})
	}
	return edges, nil
}

// kvsFromValue checks the parse output schema: a plain object mapping
// string keys to string values. Property order is preserved.
func kvsFromValue(v goja.Value) ([]model.KV, error) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("%w: expected an object of string values, got %s",
			ErrRuleOutput, valueKind(v))
	}
	if _, isArray := v.Export().([]any); isArray {
		return nil, fmt.Errorf("%w: expected an object of string values, got an array", ErrRuleOutput)
	}

	keys := obj.Keys()
	kvs := make([]model.KV, 0, len(keys))
	for _, key := range keys {
		str, ok := obj.Get(key).Export().(string)
		if !ok {
			return nil, fmt.Errorf("%w: value of key %q is not a string", ErrRuleOutput, key)
		}
		kvs = append(kvs, model.KV{Key: key, Value: str})
	}
	return kvs, nil
}

// intFromExport accepts the numeric types goja exports for JS numbers.
func intFromExport(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

// valueKind names a JS value for error messages.
func valueKind(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	if t := v.ExportType(); t != nil {
		return t.Kind().String()
	}
	return "unknown value"
}
