// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package fakeregistry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-openapi/jsonpointer"
	"github.com/gobwas/glob"

	"github.com/eclipse-hono/regctl/cli/api"
)

// filter is one filterJson criterion. Field is a JSON pointer into the
// device representation and Value a pattern where '*' matches any run of
// characters and '?' a single character.
type filter struct {
	Field string `json:"field"`
	Value any    `json:"value"`

	pointer jsonpointer.Pointer
	pattern glob.Glob
}

// parseFilters accepts a single filter object or an array of them.
func parseFilters(raw string) ([]filter, error) {
	raw = strings.TrimSpace(raw)
	var fs []filter
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &fs); err != nil {
			return nil, err
		}
	} else {
		var f filter
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			return nil, err
		}
		fs = []filter{f}
	}
	for i := range fs {
		if err := fs[i].compile(); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func (f *filter) compile() error {
	if !strings.HasPrefix(f.Field, "/") {
		return fmt.Errorf("filter field must be a JSON pointer: %q", f.Field)
	}
	p, err := jsonpointer.New(f.Field)
	if err != nil {
		return fmt.Errorf("invalid filter field %q: %w", f.Field, err)
	}
	f.pointer = p
	if s, ok := f.Value.(string); ok {
		if f.pattern, err = glob.Compile(wildcards(s)); err != nil {
			return fmt.Errorf("invalid filter value %q: %w", s, err)
		}
	}
	return nil
}

// wildcards quotes every glob meta character of s except '*' and '?'.
func wildcards(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '*' || r == '?' {
			b.WriteRune(r)
			continue
		}
		b.WriteString(glob.QuoteMeta(string(r)))
	}
	return b.String()
}

func matchesAll(d *api.Device, filters []filter) bool {
	if len(filters) == 0 {
		return true
	}
	buf, err := json.Marshal(d)
	if err != nil {
		return false
	}
	var doc any
	if err := json.Unmarshal(buf, &doc); err != nil {
		return false
	}
	for _, f := range filters {
		if !f.matches(doc) {
			return false
		}
	}
	return true
}

func (f filter) matches(doc any) bool {
	val, _, err := f.pointer.Get(doc)
	if err != nil {
		return false
	}
	if f.pattern == nil {
		return jsonEqual(val, f.Value)
	}
	if s, ok := val.(string); ok {
		return f.pattern.Match(s)
	}
	buf, err := json.Marshal(val)
	if err != nil {
		return false
	}
	return f.pattern.Match(string(buf))
}

func jsonEqual(a, b any) bool {
	ab, err1 := json.Marshal(a)
	bb, err2 := json.Marshal(b)
	return err1 == nil && err2 == nil && string(ab) == string(bb)
}
