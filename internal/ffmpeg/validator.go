// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package ffmpeg

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Validator validates if a path is eligible as a concat input
type Validator interface {
	IsValid(path string) bool
}

type validator struct {
	extensions map[string]struct{}
	allow      []*regexp.Regexp
	block      []*regexp.Regexp
}

// NewValidator creates a new Validator. An empty extension list accepts every
// extension. Empty expressions are ignored.
func NewValidator(extensions, allow, block []string) (Validator, error) {
	v := &validator{}

	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if v.extensions == nil {
			v.extensions = make(map[string]struct{})
		}
		v.extensions[ext] = struct{}{}
	}

	for _, exp := range allow {
		exp = strings.TrimSpace(exp)
		if exp == "" {
			continue
		}
		re, err := regexp.Compile(exp)
		if err != nil {
			return nil, fmt.Errorf("invalid allow expression '%s': %w", exp, err)
		}
		v.allow = append(v.allow, re)
	}

	for _, exp := range block {
		exp = strings.TrimSpace(exp)
		if exp == "" {
			continue
		}
		re, err := regexp.Compile(exp)
		if err != nil {
			return nil, fmt.Errorf("invalid block expression '%s': %w", exp, err)
		}
		v.block = append(v.block, re)
	}

	return v, nil
}

func (v *validator) IsValid(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	if v.extensions != nil {
		if _, ok := v.extensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return false
		}
	}
	for _, e := range v.block {
		if e.MatchString(path) {
			return false
		}
	}
	if len(v.allow) == 0 {
		return true
	}
	for _, e := range v.allow {
		if e.MatchString(path) {
			return true
		}
	}
	return false
}
