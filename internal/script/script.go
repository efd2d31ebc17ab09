package script

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/parecli/pare/internal/rules"
)

// The escape hatch: a Go snippet interpreted at runtime. The snippet must
// define
//
//	func Filter(output string, exitCode int, args []string) (string, bool)
//
// returning the replacement text and true to override the pipeline, or
// false to let the normal pipeline continue.

// Runner interprets rule scripts. Snippets get the full stdlib; a fresh
// interpreter is built per call so scripts cannot leak state into each
// other.
type Runner struct {
	log zerolog.Logger
}

func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{log: log}
}

// Run loads and calls the spec's Filter function. Any failure (missing
// file, syntax error, wrong signature, panic) is returned as an error; the
// caller treats errors as "no override".
func (r *Runner) Run(spec *rules.ScriptSpec, output string, exitCode int, args []string) (replacement string, override bool, err error) {
	src, err := source(spec)
	if err != nil {
		return "", false, err
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script panicked: %v", p)
			replacement, override = "", false
		}
	}()

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return "", false, fmt.Errorf("load stdlib symbols: %w", err)
	}

	if _, err := i.Eval(wrap(src)); err != nil {
		return "", false, fmt.Errorf("evaluate script: %w", err)
	}

	v, err := i.Eval("main.Filter")
	if err != nil {
		return "", false, fmt.Errorf("script does not define Filter: %w", err)
	}
	filter, ok := v.Interface().(func(string, int, []string) (string, bool))
	if !ok {
		return "", false, fmt.Errorf("Filter has wrong signature %T, want func(string, int, []string) (string, bool)", v.Interface())
	}

	r.log.Debug().Int("exit_code", exitCode).Msg("running rule script")
	replacement, override = filter(output, exitCode, args)
	return replacement, override, nil
}

func source(spec *rules.ScriptSpec) (string, error) {
	if spec.Source != "" {
		return spec.Source, nil
	}
	if spec.File == "" {
		return "", fmt.Errorf("script has neither source nor file")
	}
	data, err := os.ReadFile(spec.File)
	if err != nil {
		return "", fmt.Errorf("read script file: %w", err)
	}
	return string(data), nil
}

// wrap adds the package clause when the snippet omits it.
func wrap(src string) string {
	if strings.Contains(src, "package main") {
		return src
	}
	return "package main\n\n" + src
}
