// Package properties reads typed configuration values by name.
//
// A value is looked up, in order, among overrides set in-process, environment variables (the
// exact name, then the name upper-cased with dots and dashes replaced by underscores) and the
// global properties file. The file is fluent-steps.yaml in the working directory or in
// $XDG_CONFIG_HOME/fluent-steps/; nested YAML keys are joined with dots and lists are joined
// with commas.
package properties

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the name of the global properties file.
const DefaultFile = "fluent-steps.yaml"

// ErrFileNotFound is returned by UseFile when the file does not exist.
var ErrFileNotFound = errors.New("properties file not found")

type store struct {
	lock      sync.RWMutex
	overrides map[string]string
	file      map[string]string
	loaded    bool
	path      string
	lookupEnv func(string) (string, bool)
}

var global = &store{overrides: map[string]string{}, lookupEnv: os.LookupEnv}

// Set overrides a property for the rest of the process.
func Set(name, value string) {
	global.lock.Lock()
	global.overrides[name] = value
	global.lock.Unlock()
}

// Unset removes an override.
func Unset(name string) {
	global.lock.Lock()
	delete(global.overrides, name)
	global.lock.Unlock()
}

// Lookup returns the raw value of a property and whether it is defined.
func Lookup(name string) (string, bool) {
	global.lock.RLock()
	if v, ok := global.overrides[name]; ok {
		global.lock.RUnlock()
		return v, true
	}
	lookupEnv := global.lookupEnv
	global.lock.RUnlock()

	if v, ok := lookupEnv(name); ok {
		return v, true
	}
	if v, ok := lookupEnv(EnvName(name)); ok {
		return v, true
	}

	global.lock.RLock()
	loaded := global.loaded
	global.lock.RUnlock()
	if !loaded {
		// a broken file behaves like a missing one here; Refresh reports the error
		_ = Refresh()
	}

	global.lock.RLock()
	defer global.lock.RUnlock()
	v, ok := global.file[name]
	return v, ok
}

// EnvName is the environment variable consulted after the exact property name.
func EnvName(name string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(name))
}

// UseFile makes the properties file at path the global one and loads it.
func UseFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return err
	}
	global.lock.Lock()
	global.path = path
	global.lock.Unlock()
	return Refresh()
}

// Refresh re-reads the global properties file.
func Refresh() error {
	values, err := readFile(FindFile())
	global.lock.Lock()
	defer global.lock.Unlock()
	global.loaded = true
	if err != nil {
		global.file = map[string]string{}
		return err
	}
	global.file = values
	return nil
}

// FindFile returns the path of the global properties file, or "" if there is none.
func FindFile() string {
	global.lock.RLock()
	explicit := global.path
	global.lock.RUnlock()
	if explicit != "" {
		return explicit
	}
	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if p, err := xdg.SearchConfigFile(filepath.Join("fluent-steps", DefaultFile)); err == nil {
		return p
	}
	return ""
}

func readFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	values, err := parseFile(data)
	if err != nil {
		return nil, fmt.Errorf("invalid properties file %s: %w", path, err)
	}
	return values, nil
}

func parseFile(data []byte) (map[string]string, error) {
	var root map[string]interface{}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	out := map[string]string{}
	flatten("", root, out)
	return out, nil
}

func flatten(prefix string, m map[string]interface{}, out map[string]string) {
	for k, v := range m {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		switch x := v.(type) {
		case map[string]interface{}:
			flatten(name, x, out)
		case []interface{}:
			parts := make([]string, 0, len(x))
			for _, item := range x {
				parts = append(parts, scalar(item))
			}
			out[name] = strings.Join(parts, ",")
		default:
			out[name] = scalar(v)
		}
	}
}

func scalar(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Names lists the properties defined by the global file, sorted.
func Names() []string {
	global.lock.RLock()
	loaded := global.loaded
	global.lock.RUnlock()
	if !loaded {
		_ = Refresh()
	}
	global.lock.RLock()
	names := make([]string, 0, len(global.file))
	for n := range global.file {
		names = append(names, n)
	}
	global.lock.RUnlock()
	sort.Strings(names)
	return names
}
