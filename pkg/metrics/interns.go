// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Interning keeps a bounded cache of Info and Tag instances so that
// hot descriptors are shared across sampling passes instead of being
// reallocated. The caches are LRU bounded: overflow only costs extra
// allocations, never correctness.
const (
	maxInfos = 2010
	maxTags  = 100
)

type infoKey struct {
	name, description string
}

type tagKey struct {
	info  *Info
	value string
}

var (
	infoCache, _ = lru.New[infoKey, *Info](maxInfos)
	tagCache, _  = lru.New[tagKey, Tag](maxTags)
)

// NewInfo returns the canonical Info for the given name and
// description.
func NewInfo(name, description string) *Info {
	key := infoKey{name, description}
	if info, ok := infoCache.Get(key); ok {
		return info
	}
	info := &Info{name: name, description: description}
	infoCache.Add(key, info)
	return info
}

// NewTag returns the canonical Tag for the given descriptor and value.
func NewTag(info *Info, value string) Tag {
	key := tagKey{info, value}
	if tag, ok := tagCache.Get(key); ok {
		return tag
	}
	tag := Tag{info: info, value: value}
	tagCache.Add(key, tag)
	return tag
}
