// Package ext provides optional function libraries for gospel expressions.
// Extension functions are called with the "#" prefix, like any host function.
//
// The functions live in sub-packages grouped by category:
//   - extstring     – #upper, #split, #join, #replace, #camelCase, #template, …
//   - extnumeric    – #abs, #round, #sum, #avg, #median, #percentile, …
//   - extcollection – #first, #take, #flatten, set ops, #keys, #pick, #merge, …
//   - exttypes      – #typeOf, #isString, #isEmpty, #toNumber, #default, …
//   - extcrypto     – #uuid, #hash, #hmac, #base64Encode
//   - extdatetime   – #millis, #toMillis, #fromMillis, #dateAdd, #dateDiff, …
//   - extformat     – #parseCSV, #toCSV, #parseJSON, #toJSON, #parseYAML, #toYAML
//   - extwasm       – numeric exports of a WebAssembly module
//
// # Integration – all extensions at once
//
//	import "github.com/sandrolain/gospel/pkg/ext"
//
//	result, err := gospel.Eval("#upper(name)", data, ext.WithAll())
//
// # Integration – by category
//
//	result, err := gospel.Eval(expr, data,
//	    ext.WithString(),
//	    ext.WithCollection(),
//	)
//
// # Integration – single function from a sub-package
//
//	import "github.com/sandrolain/gospel/pkg/ext/extstring"
//
//	result, err := gospel.Eval(expr, data,
//	    gospel.WithFunctions(extstring.StartsWith()),
//	)
package ext

import (
	"github.com/sandrolain/gospel/pkg/evaluator"
	"github.com/sandrolain/gospel/pkg/ext/extcollection"
	"github.com/sandrolain/gospel/pkg/ext/extcrypto"
	"github.com/sandrolain/gospel/pkg/ext/extdatetime"
	"github.com/sandrolain/gospel/pkg/ext/extformat"
	"github.com/sandrolain/gospel/pkg/ext/extnumeric"
	"github.com/sandrolain/gospel/pkg/ext/extstring"
	"github.com/sandrolain/gospel/pkg/ext/exttypes"
	"github.com/sandrolain/gospel/pkg/functions"
)

// All returns every built-in extension function definition. WebAssembly
// functions are not included since they need a module.
func All() []functions.CustomFunctionDef {
	var all []functions.CustomFunctionDef
	all = append(all, extstring.All()...)
	all = append(all, extnumeric.All()...)
	all = append(all, extcollection.All()...)
	all = append(all, exttypes.All()...)
	all = append(all, extcrypto.All()...)
	all = append(all, extdatetime.All()...)
	all = append(all, extformat.All()...)
	return all
}

// Table returns All as a function table keyed by name.
func Table() map[string]any {
	return functions.Table(All()...)
}

// WithAll returns an EvalOption that registers all extension functions.
func WithAll() evaluator.EvalOption {
	return evaluator.WithFunctions(All()...)
}

// WithString returns an EvalOption for the string functions.
func WithString() evaluator.EvalOption {
	return evaluator.WithFunctions(extstring.All()...)
}

// WithNumeric returns an EvalOption for the numeric functions.
func WithNumeric() evaluator.EvalOption {
	return evaluator.WithFunctions(extnumeric.All()...)
}

// WithCollection returns an EvalOption for the list and map functions.
func WithCollection() evaluator.EvalOption {
	return evaluator.WithFunctions(extcollection.All()...)
}

// WithTypes returns an EvalOption for the type functions.
func WithTypes() evaluator.EvalOption {
	return evaluator.WithFunctions(exttypes.All()...)
}

// WithCrypto returns an EvalOption for the identifier and hashing functions.
func WithCrypto() evaluator.EvalOption {
	return evaluator.WithFunctions(extcrypto.All()...)
}

// WithDateTime returns an EvalOption for the date and time functions.
func WithDateTime() evaluator.EvalOption {
	return evaluator.WithFunctions(extdatetime.All()...)
}

// WithFormat returns an EvalOption for the CSV, JSON and YAML functions.
func WithFormat() evaluator.EvalOption {
	return evaluator.WithFunctions(extformat.All()...)
}
