package starlark

import (
	"fmt"

	"go.starlark.net/starlark"
)

// SetupFunctionName is the function a module setup script must define.
const SetupFunctionName = "setup"

// EnvBindings returns the get_env/put_env builtins bound to env. The
// closures capture the map directly; no state is stashed on the engine, so
// two resolutions never share a working environment by accident.
func EnvBindings(env map[string]string) starlark.StringDict {
	getEnv := starlark.NewBuiltin("get_env", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
			return nil, err
		}
		return starlark.String(env[name]), nil
	})

	putEnv := starlark.NewBuiltin("put_env", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name, value string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &name, &value); err != nil {
			return nil, err
		}
		env[name] = value
		return starlark.None, nil
	})

	return starlark.StringDict{
		"get_env": getEnv,
		"put_env": putEnv,
	}
}

// ModuleScope assembles the predeclared scope for one module's setup
// script: the environment bindings, one struct per direct dependency
// (named after the dependency) and the module's own properties exposed
// directly.
func ModuleScope(env map[string]string, ownProps map[string]any, depProps map[string]map[string]any) (starlark.StringDict, error) {
	scope := EnvBindings(env)

	for depName, props := range depProps {
		sv, err := PropsToStruct(depName, props)
		if err != nil {
			return nil, err
		}
		scope[depName] = sv
	}

	for k, v := range ownProps {
		sv, err := GoToStarlark(v)
		if err != nil {
			return nil, fmt.Errorf("module property %q: %w", k, err)
		}
		scope[k] = sv
	}

	return scope, nil
}

// setupThreads is shared by all setup-script executions. Concurrent
// resolutions each draw their own thread; a thread is never used by two
// scripts at once.
var setupThreads = NewThreadPool(0)

// RunSetup executes a setup script source in the given scope and invokes
// its setup() function with zero arguments. The filename is used for error
// positions only.
func RunSetup(threadName, filename, source string, predeclared starlark.StringDict) error {
	thread := setupThreads.Get(threadName)
	defer setupThreads.Put(thread)

	globals, err := starlark.ExecFile(thread, filename, source, predeclared)
	if err != nil {
		return err
	}

	fn, ok := globals[SetupFunctionName]
	if !ok {
		return fmt.Errorf("%s: script defines no %q function", filename, SetupFunctionName)
	}
	if _, ok := fn.(starlark.Callable); !ok {
		return fmt.Errorf("%s: %q is not callable", filename, SetupFunctionName)
	}

	_, err = starlark.Call(thread, fn, nil, nil)
	return err
}
