/*
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package wgpupp preprocesses WGSL shader source: it resolves #include
// directives, expands #define macros (object-like and function-like,
// removed again by #undef), strips comments, and joins backslash line
// continuations. The expanded text can optionally be handed to a
// validator before being returned.
//
// Output is semantically equivalent to the input but makes no promise
// about formatting or whitespace fidelity. Conditional compilation
// (#ifdef and friends) is not supported.
package wgpupp

import (
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/mbullington/wgpu-pp/internal/macro"
	"github.com/mbullington/wgpu-pp/internal/pperr"
	"github.com/mbullington/wgpu-pp/internal/preprocessor"
)

// Error is the failure type returned by Preprocess and PreprocessFile;
// use errors.As to inspect its Kind, file, and line.
type Error = pperr.Error

// ErrorKind discriminates preprocessing failures.
type ErrorKind = pperr.Kind

const (
	KindSyntax                = pperr.KindSyntax
	KindArgumentCountMismatch = pperr.KindArgumentCountMismatch
	KindIncludeNotFound       = pperr.KindIncludeNotFound
	KindIncludeCycle          = pperr.KindIncludeCycle
	KindRecursionLimit        = pperr.KindRecursionLimit
	KindValidation            = pperr.KindValidation
)

// Validator consumes fully expanded shader text and reports whether it
// is a valid shader. A non-nil error is surfaced as a ValidationError.
type Validator interface {
	Validate(source string) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(source string) error

func (f ValidatorFunc) Validate(source string) error { return f(source) }

type config struct {
	includeDirs       []string
	defines           []macro.Definition
	maxIncludeDepth   int
	maxExpansionDepth int
	log               logr.Logger
	validator         Validator
}

// Option is a function that configures a preprocessing invocation.
type Option func(*config)

// WithLogr sets the logger; directive and include events are logged at
// verbosity 1.
var WithLogr = func(log logr.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithIncludeDirs appends directories searched when resolving includes.
var WithIncludeDirs = func(dirs ...string) Option {
	return func(c *config) {
		c.includeDirs = append(c.includeDirs, dirs...)
	}
}

// WithDefine seeds an object-like macro before processing starts, as a
// -D command line flag would.
var WithDefine = func(name, value string) Option {
	return func(c *config) {
		c.defines = append(c.defines, macro.Definition{
			Name:   name,
			Kind:   macro.Object,
			Body:   value,
			Origin: macro.Origin{File: "<predefined>"},
		})
	}
}

// WithMaxIncludeDepth bounds include nesting.
var WithMaxIncludeDepth = func(n int) Option {
	return func(c *config) {
		c.maxIncludeDepth = n
	}
}

// WithMaxExpansionDepth bounds recursive macro expansion.
var WithMaxExpansionDepth = func(n int) Option {
	return func(c *config) {
		c.maxExpansionDepth = n
	}
}

// WithValidator runs v over the final expanded text.
var WithValidator = func(v Validator) Option {
	return func(c *config) {
		c.validator = v
	}
}

func newConfig(opts []Option) config {
	cfg := config{log: logr.Discard()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Preprocess expands in-memory shader source. name identifies the
// source in diagnostics; includes resolve relative to basepath. Each
// call uses fresh macro state, so concurrent calls are independent.
func Preprocess(name, source, basepath string, opts ...Option) (string, error) {
	cfg := newConfig(opts)
	id := name
	if basepath != "" && !filepath.IsAbs(name) {
		id = filepath.Join(basepath, name)
	}
	var out strings.Builder
	pp := newPipeline(cfg)
	if err := pp.ProcessSource(id, source, &out); err != nil {
		return "", err
	}
	return validate(cfg, id, out.String())
}

// PreprocessFile reads filename relative to basepath and expands it.
func PreprocessFile(filename, basepath string, opts ...Option) (string, error) {
	cfg := newConfig(opts)
	path := filename
	if basepath != "" && !filepath.IsAbs(filename) {
		path = filepath.Join(basepath, filename)
	}
	var out strings.Builder
	pp := newPipeline(cfg)
	if err := pp.ProcessFile(path, &out); err != nil {
		return "", err
	}
	return validate(cfg, path, out.String())
}

func newPipeline(cfg config) *preprocessor.Preprocessor {
	pp := preprocessor.New(preprocessor.Config{
		IncludeDirs:       cfg.includeDirs,
		MaxIncludeDepth:   cfg.maxIncludeDepth,
		MaxExpansionDepth: cfg.maxExpansionDepth,
		Log:               cfg.log,
	}, macro.NewTable())
	for _, def := range cfg.defines {
		pp.Table().Define(def)
	}
	return pp
}

func validate(cfg config, file, text string) (string, error) {
	if cfg.validator == nil {
		return text, nil
	}
	if err := cfg.validator.Validate(text); err != nil {
		return "", &pperr.Error{
			Kind:    pperr.KindValidation,
			File:    file,
			Message: err.Error(),
			Err:     err,
		}
	}
	return text, nil
}
