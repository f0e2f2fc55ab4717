package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

const (
	goDefinitionFuncName = "PolicyDefinitions"
	goDefinitionImport   = "strata/policydef"
)

// policydefSymbols exposes the definition schema to interpreted plugin
// files. A plugin imports "strata/policydef" and returns typed definitions,
// so schema mistakes surface as interpreter type errors at load time rather
// than as decode failures later.
var policydefSymbols = interp.Exports{
	goDefinitionImport + "/policydef": {
		"Definition":           reflect.ValueOf((*PolicyDefinition)(nil)),
		"StrategyDefinition":   reflect.ValueOf((*StrategyDefinition)(nil)),
		"ValidationDefinition": reflect.ValueOf((*ValidationDefinition)(nil)),
	},
}

// LoadGoDefinitionDir evaluates every .go file in dir and collects the
// policy definitions its PolicyDefinitions() returns.
func LoadGoDefinitionDir(dir string) ([]DefinitionFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("plugin: read %s: %w", trimmed, err)
	}
	var defs []DefinitionFile
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".go" {
			continue
		}
		fileDefs, err := loadGoDefinitionFile(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		defs = append(defs, fileDefs...)
	}
	if len(defs) == 0 {
		return nil, nil
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Path < defs[j].Path })
	return defs, nil
}

func loadGoDefinitionFile(path string) ([]DefinitionFile, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("plugin: %s is empty", path)
	}
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("plugin: %s: bind stdlib: %w", path, err)
	}
	if err := i.Use(policydefSymbols); err != nil {
		return nil, fmt.Errorf("plugin: %s: bind %s: %w", path, goDefinitionImport, err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("plugin: interpret %s: %w", path, err)
	}
	fnValue, err := i.Eval(goDefinitionFuncName)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s must define %s() ([]policydef.Definition, error): %w", path, goDefinitionFuncName, err)
	}
	raw, err := callDefinitionFunc(fnValue)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, err)
	}
	files := make([]DefinitionFile, 0, len(raw))
	for idx, def := range raw {
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("plugin: %s definition[%d]: %w", path, idx, err)
		}
		files = append(files, DefinitionFile{
			Definition: def.Normalized(),
			Path:       fmt.Sprintf("%s#%d", path, idx+1),
		})
	}
	return files, nil
}

// callDefinitionFunc invokes the interpreted PolicyDefinitions and asserts
// its results back to host types. The policydef symbols are bound to this
// package's own structs, so the interpreter hands back []PolicyDefinition
// directly.
func callDefinitionFunc(value reflect.Value) ([]PolicyDefinition, error) {
	if !value.IsValid() || value.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", goDefinitionFuncName)
	}
	fnType := value.Type()
	if fnType.NumIn() != 0 {
		return nil, fmt.Errorf("%s must take no arguments", goDefinitionFuncName)
	}
	results := value.Call(nil)
	switch len(results) {
	case 1:
	case 2:
		if !results[1].IsNil() {
			callErr, ok := results[1].Interface().(error)
			if !ok {
				return nil, fmt.Errorf("%s second return value must be an error", goDefinitionFuncName)
			}
			return nil, callErr
		}
	default:
		return nil, fmt.Errorf("%s must return ([]policydef.Definition[, error])", goDefinitionFuncName)
	}
	defs, ok := results[0].Interface().([]PolicyDefinition)
	if !ok {
		return nil, fmt.Errorf("%s must return []policydef.Definition, got %s", goDefinitionFuncName, results[0].Type())
	}
	return defs, nil
}
