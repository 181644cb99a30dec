package evaluator

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru"
)

// regexCacheSize bounds the number of compiled patterns kept by
// regexCache. Patterns come from runtime values, so the set is open.
const regexCacheSize = 512

// regexCache holds compiled *regexp.Regexp keyed by pattern string, evicting
// the least recently used pattern when full. When two goroutines compile the
// same pattern concurrently both store an equivalent value.
var regexCache = newRegexCache(regexCacheSize)

func newRegexCache(size int) *lru.Cache {
	c, err := lru.New(size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return c
}

// getOrCompileRegex retrieves or compiles a regex pattern.
func getOrCompileRegex(pattern string) (*regexp.Regexp, error) {
	if v, ok := regexCache.Get(pattern); ok {
		return v.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexCache.Add(pattern, re)
	return re, nil
}

// fieldCache maps a struct reflect.Type to the index of every exported
// field under each of its expression names.
var fieldCache sync.Map // map[reflect.Type]map[string][]int

// structFields returns the name -> field index table for struct type t.
// Names are registered in priority order: spel tag, json tag, Go field name
// and the field name with a lower-case first letter. An earlier registration
// is never overwritten.
func structFields(t reflect.Type) map[string][]int {
	if v, ok := fieldCache.Load(t); ok {
		return v.(map[string][]int)
	}

	fields := make(map[string][]int)
	add := func(name string, index []int) {
		if name == "" || name == "-" {
			return
		}
		if _, exists := fields[name]; !exists {
			fields[name] = index
		}
	}

	visible := reflect.VisibleFields(t)
	tagged := func(key string) {
		for _, f := range visible {
			if !f.IsExported() || f.Anonymous {
				continue
			}
			if tag, ok := f.Tag.Lookup(key); ok {
				name, _, _ := strings.Cut(tag, ",")
				add(name, f.Index)
			}
		}
	}
	tagged("spel")
	tagged("json")
	for _, f := range visible {
		if f.IsExported() && !f.Anonymous {
			add(f.Name, f.Index)
		}
	}
	for _, f := range visible {
		if f.IsExported() && !f.Anonymous {
			add(lowerFirst(f.Name), f.Index)
		}
	}

	fieldCache.Store(t, fields)
	return fields
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
