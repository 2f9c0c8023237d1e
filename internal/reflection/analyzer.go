package reflection

import (
	"fmt"
	"reflect"
	"sync"
)

var errType = reflect.TypeFor[error]()

// Analyzer performs reflection-based analysis of functions.
// It caches analysis results keyed by function pointer.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[uintptr]*FuncInfo
}

// FuncInfo contains analyzed information about a function.
type FuncInfo struct {
	Type  reflect.Type
	Value reflect.Value

	// Params holds the fixed parameter types. The variadic parameter,
	// if any, is excluded and described by Variadic.
	Params   []reflect.Type
	Variadic reflect.Type // element type of the variadic parameter

	// Results holds the non-error return types.
	Results        []reflect.Type
	HasErrorReturn bool // Returns error as last value
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		cache: make(map[uintptr]*FuncInfo),
	}
}

// Analyze analyzes fn, returning the cached result when fn was seen before.
func (a *Analyzer) Analyze(fn any) (*FuncInfo, error) {
	if fn == nil {
		return nil, fmt.Errorf("function cannot be nil")
	}

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %v", v.Type())
	}

	// Closures from one literal share a code pointer; Value is rebound per call.
	key := v.Pointer()

	a.mu.RLock()
	if info, ok := a.cache[key]; ok && info.Type == v.Type() {
		a.mu.RUnlock()
		return &FuncInfo{
			Type:           info.Type,
			Value:          v,
			Params:         info.Params,
			Variadic:       info.Variadic,
			Results:        info.Results,
			HasErrorReturn: info.HasErrorReturn,
		}, nil
	}
	a.mu.RUnlock()

	info, err := Analyze(fn)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.cache[key] = info
	a.mu.Unlock()

	return info, nil
}

// CacheSize returns the number of cached analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cache)
}

// Analyze inspects fn without caching.
func Analyze(fn any) (*FuncInfo, error) {
	if fn == nil {
		return nil, fmt.Errorf("function cannot be nil")
	}

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %v", v.Type())
	}
	if v.IsNil() {
		return nil, fmt.Errorf("function cannot be nil")
	}

	t := v.Type()
	info := &FuncInfo{
		Type:  t,
		Value: v,
	}

	numIn := t.NumIn()
	if t.IsVariadic() {
		info.Variadic = t.In(numIn - 1).Elem()
		numIn--
	}
	info.Params = make([]reflect.Type, numIn)
	for i := range numIn {
		info.Params[i] = t.In(i)
	}

	numOut := t.NumOut()
	if numOut > 0 && t.Out(numOut-1) == errType {
		info.HasErrorReturn = true
		numOut--
	}
	info.Results = make([]reflect.Type, numOut)
	for i := range numOut {
		info.Results[i] = t.Out(i)
	}

	return info, nil
}

// AnalyzeConstructor inspects fn and checks that it has the shape of a
// constructor: exactly one result, optionally followed by an error.
func AnalyzeConstructor(fn any) (*FuncInfo, error) {
	info, err := Analyze(fn)
	if err != nil {
		return nil, err
	}

	if len(info.Results) != 1 {
		return nil, fmt.Errorf("constructor %v must return exactly one value, optionally followed by an error", info.Type)
	}

	return info, nil
}

// Out returns the constructed type for a constructor.
func (i *FuncInfo) Out() reflect.Type {
	if len(i.Results) == 0 {
		return nil
	}
	return i.Results[0]
}

// Accepts reports whether the function can be called with n arguments.
func (i *FuncInfo) Accepts(n int) bool {
	if i.Variadic != nil {
		return n >= len(i.Params)
	}
	return n == len(i.Params)
}

// ParamType returns the type expected for the argument at index.
func (i *FuncInfo) ParamType(index int) reflect.Type {
	if index < len(i.Params) {
		return i.Params[index]
	}
	return i.Variadic
}

// ParamTypes returns every declared parameter type including the variadic slice.
func (i *FuncInfo) ParamTypes() []reflect.Type {
	types := make([]reflect.Type, 0, i.Type.NumIn())
	for n := range i.Type.NumIn() {
		types = append(types, i.Type.In(n))
	}
	return types
}
