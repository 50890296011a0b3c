package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Env is the shell's environment table, backed by a map.
type Env struct {
	rw  sync.RWMutex
	env map[string]string
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	return &Env{}
}

// NewEnvFromList creates an environment from "key=value" entries, the
// form returned by Environ. Later duplicates win.
func NewEnvFromList(environ []string) *Env {
	out := &Env{}

	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		out.Setenv(key, value)
	}

	return out
}

// Setenv sets the value of the variable named by key.
func (e *Env) Setenv(key, value string) {
	e.rw.Lock()
	defer e.rw.Unlock()

	if e.env == nil {
		e.env = make(map[string]string)
	}
	e.env[key] = value
}

// Unsetenv removes the variable named by key.
func (e *Env) Unsetenv(key string) {
	e.rw.Lock()
	defer e.rw.Unlock()
	if e.env != nil {
		delete(e.env, key)
	}
}

// LookupEnv returns the value of the variable named by key and whether
// it is present.
func (e *Env) LookupEnv(key string) (string, bool) {
	e.rw.RLock()
	defer e.rw.RUnlock()

	val, ok := e.env[key]
	return val, ok
}

// Getenv returns the value of the variable named by key, or "".
func (e *Env) Getenv(key string) string {
	val, _ := e.LookupEnv(key)
	return val
}

// Environ returns the environment as sorted "key=value" entries.
func (e *Env) Environ() []string {
	e.rw.RLock()
	defer e.rw.RUnlock()

	var env []string
	for k, v := range e.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)

	return env
}
