// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Filter is a compiled predicate over metric, record and source names.
// AcceptsTags delegates to the "name:value" string form of each tag.
type Filter interface {
	Accepts(name string) bool
	AcceptsTags(tags []Tag) bool
}

// GlobFilter accepts names by shell-style include/exclude patterns
// ('*' and '?' wildcards). A name is rejected when it matches an
// exclude pattern, or when include patterns exist and none match.
type GlobFilter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// NewGlobFilter compiles the patterns, reporting every bad pattern at
// once.
func NewGlobFilter(include, exclude []string) (*GlobFilter, error) {
	f := &GlobFilter{}
	var errs error
	for _, p := range include {
		re, err := compileGlob(p)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		f.include = append(f.include, re)
	}
	for _, p := range exclude {
		re, err := compileGlob(p)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		f.exclude = append(f.exclude, re)
	}
	if errs != nil {
		return nil, errs
	}
	return f, nil
}

func (f *GlobFilter) Accepts(name string) bool {
	for _, re := range f.exclude {
		if re.MatchString(name) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, re := range f.include {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// AcceptsTags accepts a tag set unless some tag is explicitly
// excluded, or include patterns exist and no tag matches any of them.
func (f *GlobFilter) AcceptsTags(tags []Tag) bool {
	for _, t := range tags {
		for _, re := range f.exclude {
			if re.MatchString(t.String()) {
				return false
			}
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, t := range tags {
		for _, re := range f.include {
			if re.MatchString(t.String()) {
				return true
			}
		}
	}
	return false
}

func compileGlob(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("bad glob pattern %q: %w", pattern, err)
	}
	return re, nil
}

// FilterFromConfig compiles a filter from the include/exclude keys of
// a config subtree. Returns nil when neither key is set.
func FilterFromConfig(v *viper.Viper) (Filter, error) {
	if v == nil {
		return nil, nil
	}
	include := patterns(v.Get("include"))
	exclude := patterns(v.Get("exclude"))
	if len(include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	return NewGlobFilter(include, exclude)
}

// patterns accepts either a comma separated string or a list value.
func patterns(raw any) []string {
	switch val := raw.(type) {
	case string:
		return splitPatterns(val)
	case []string:
		return val
	case []any:
		var out []string
		for _, x := range val {
			out = append(out, fmt.Sprint(x))
		}
		return out
	}
	return nil
}

func splitPatterns(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
