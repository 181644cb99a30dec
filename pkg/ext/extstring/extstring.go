// Package extstring provides string functions for gospel expressions.
// Register them via gospel.WithFunctions or via the top-level
// ext.WithString() helper.
package extstring

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/sandrolain/gospel/pkg/ext/extutil"
	"github.com/sandrolain/gospel/pkg/functions"
	"github.com/sandrolain/gospel/pkg/types"
)

// All returns all string function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Upper(),
		Lower(),
		Trim(),
		StartsWith(),
		EndsWith(),
		IndexOf(),
		LastIndexOf(),
		Substring(),
		Split(),
		Join(),
		Replace(),
		Capitalize(),
		CamelCase(),
		SnakeCase(),
		KebabCase(),
		Repeat(),
		Words(),
		Template(),
	}
}

func unary(name string, fn func(string) string) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, err := extutil.String(name, args, 0)
			if err != nil {
				return nil, err
			}
			return fn(str), nil
		},
	}
}

// Upper returns the definition for #upper(str).
func Upper() functions.CustomFunctionDef { return unary("upper", strings.ToUpper) }

// Lower returns the definition for #lower(str).
func Lower() functions.CustomFunctionDef { return unary("lower", strings.ToLower) }

// Trim returns the definition for #trim(str).
func Trim() functions.CustomFunctionDef { return unary("trim", strings.TrimSpace) }

// StartsWith returns the definition for #startsWith(str, prefix).
func StartsWith() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "startsWith",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, err := extutil.String("startsWith", args, 0)
			if err != nil {
				return nil, err
			}
			prefix, err := extutil.String("startsWith", args, 1)
			if err != nil {
				return nil, err
			}
			return strings.HasPrefix(str, prefix), nil
		},
	}
}

// EndsWith returns the definition for #endsWith(str, suffix).
func EndsWith() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "endsWith",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, err := extutil.String("endsWith", args, 0)
			if err != nil {
				return nil, err
			}
			suffix, err := extutil.String("endsWith", args, 1)
			if err != nil {
				return nil, err
			}
			return strings.HasSuffix(str, suffix), nil
		},
	}
}

// IndexOf returns the definition for #indexOf(str, search [, start]).
// Positions count runes. Returns -1 when not found.
func IndexOf() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "indexOf",
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, err := extutil.String("indexOf", args, 0)
			if err != nil {
				return nil, err
			}
			search, err := extutil.String("indexOf", args, 1)
			if err != nil {
				return nil, err
			}
			start, err := extutil.OptionalInt("indexOf", args, 2, 0)
			if err != nil {
				return nil, err
			}
			runes := []rune(str)
			if start < 0 {
				start = 0
			}
			if start > len(runes) {
				return float64(-1), nil
			}
			rest := string(runes[start:])
			idx := strings.Index(rest, search)
			if idx == -1 {
				return float64(-1), nil
			}
			return float64(start + len([]rune(rest[:idx]))), nil
		},
	}
}

// LastIndexOf returns the definition for #lastIndexOf(str, search).
// Returns -1 when not found.
func LastIndexOf() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "lastIndexOf",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, err := extutil.String("lastIndexOf", args, 0)
			if err != nil {
				return nil, err
			}
			search, err := extutil.String("lastIndexOf", args, 1)
			if err != nil {
				return nil, err
			}
			idx := strings.LastIndex(str, search)
			if idx == -1 {
				return float64(-1), nil
			}
			return float64(len([]rune(str[:idx]))), nil
		},
	}
}

// Substring returns the definition for #substring(str, start [, length]).
// Out-of-range bounds are clamped.
func Substring() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "substring",
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, err := extutil.String("substring", args, 0)
			if err != nil {
				return nil, err
			}
			runes := []rune(str)
			start, err := extutil.Int("substring", args, 1)
			if err != nil {
				return nil, err
			}
			length, err := extutil.OptionalInt("substring", args, 2, len(runes))
			if err != nil {
				return nil, err
			}
			start = max(0, min(start, len(runes)))
			end := max(start, min(start+max(length, 0), len(runes)))
			return string(runes[start:end]), nil
		},
	}
}

// Split returns the definition for #split(str, separator).
func Split() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "split",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, err := extutil.String("split", args, 0)
			if err != nil {
				return nil, err
			}
			sep, err := extutil.String("split", args, 1)
			if err != nil {
				return nil, err
			}
			parts := strings.Split(str, sep)
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return out, nil
		},
	}
}

// Join returns the definition for #join(list [, separator]).
func Join() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "join",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			list, err := extutil.List("join", args, 0)
			if err != nil {
				return nil, err
			}
			sep := ""
			if len(args) > 1 {
				if sep, err = extutil.String("join", args, 1); err != nil {
					return nil, err
				}
			}
			parts := make([]string, len(list))
			for i, v := range list {
				s, ok := v.(string)
				if !ok {
					return nil, types.Errorf(types.ErrInvalidArgument,
						"#join: element %d is not a string: %s", i, types.Describe(v))
				}
				parts[i] = s
			}
			return strings.Join(parts, sep), nil
		},
	}
}

// Replace returns the definition for #replace(str, pattern, replacement).
// pattern is a regular expression; replacement may reference groups as $1.
func Replace() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "replace",
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, err := extutil.String("replace", args, 0)
			if err != nil {
				return nil, err
			}
			pattern, err := extutil.String("replace", args, 1)
			if err != nil {
				return nil, err
			}
			repl, err := extutil.String("replace", args, 2)
			if err != nil {
				return nil, err
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, types.Errorf(types.ErrInvalidRegex,
					"#replace: invalid regular expression %s", types.QuoteString(pattern)).WithCause(err)
			}
			return re.ReplaceAllString(str, repl), nil
		},
	}
}

// Capitalize returns the definition for #capitalize(str).
// Uppercases the first character, lowercases the rest.
func Capitalize() functions.CustomFunctionDef {
	return unary("capitalize", func(str string) string {
		if str == "" {
			return str
		}
		runes := []rune(strings.ToLower(str))
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	})
}

// splitWordsRe splits on snake_case, kebab-case, spaces and camelCase humps.
var splitWordsRe = regexp.MustCompile(`[_\-\s]+|([a-z])([A-Z])`)

func splitIntoWords(str string) []string {
	expanded := splitWordsRe.ReplaceAllStringFunc(str, func(s string) string {
		if len(s) == 2 && s[0] >= 'a' && s[0] <= 'z' {
			return string(s[0]) + " " + string(s[1])
		}
		return " "
	})
	return strings.Fields(expanded)
}

// CamelCase returns the definition for #camelCase(str).
func CamelCase() functions.CustomFunctionDef {
	return unary("camelCase", func(str string) string {
		words := splitIntoWords(str)
		if len(words) == 0 {
			return ""
		}
		var b strings.Builder
		b.WriteString(strings.ToLower(words[0]))
		for _, w := range words[1:] {
			runes := []rune(strings.ToLower(w))
			runes[0] = unicode.ToUpper(runes[0])
			b.WriteString(string(runes))
		}
		return b.String()
	})
}

func joinedLower(sep string) func(string) string {
	return func(str string) string {
		words := splitIntoWords(str)
		for i, w := range words {
			words[i] = strings.ToLower(w)
		}
		return strings.Join(words, sep)
	}
}

// SnakeCase returns the definition for #snakeCase(str).
func SnakeCase() functions.CustomFunctionDef { return unary("snakeCase", joinedLower("_")) }

// KebabCase returns the definition for #kebabCase(str).
func KebabCase() functions.CustomFunctionDef { return unary("kebabCase", joinedLower("-")) }

// Repeat returns the definition for #repeat(str, n).
func Repeat() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "repeat",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, err := extutil.String("repeat", args, 0)
			if err != nil {
				return nil, err
			}
			n, err := extutil.Int("repeat", args, 1)
			if err != nil || n < 0 {
				return nil, extutil.ArgError("repeat", 1, "a non-negative integer", args[1])
			}
			return strings.Repeat(str, n), nil
		},
	}
}

// Words returns the definition for #words(str): the whitespace-separated
// words of str as a list.
func Words() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "words",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, err := extutil.String("words", args, 0)
			if err != nil {
				return nil, err
			}
			parts := strings.Fields(str)
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return out, nil
		},
	}
}

var templateRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Template returns the definition for #template(str, bindings).
// Replaces {{key}} placeholders with values from the bindings map.
func Template() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "template",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			tmpl, err := extutil.String("template", args, 0)
			if err != nil {
				return nil, err
			}
			bindings, err := extutil.Map("template", args, 1)
			if err != nil {
				return nil, err
			}
			return templateRe.ReplaceAllStringFunc(tmpl, func(match string) string {
				key := match[2 : len(match)-2]
				if val, ok := bindings.Get(key); ok {
					if s, ok := val.(string); ok {
						return s
					}
					return fmt.Sprint(types.Normalize(val))
				}
				return match
			}), nil
		},
	}
}
