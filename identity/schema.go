package identity

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed schema.json
var defaultSchemaDoc []byte

// AccessControl is the flattened path→permissions policy document
// (spec.md §4.1, §9 "policy as data"). It is parsed once at load time;
// every subsequent lookup is a map read, keeping checks O(1) regardless of
// tree depth.
type AccessControl struct {
	paths map[string][]Permission
}

// NewAccessControl parses a JSON policy document shaped like schema.json:
// nested objects whose keys are path segments, each optionally carrying a
// "permissions" array, terminating the accumulated path at that node.
func NewAccessControl(doc []byte) (*AccessControl, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("invalid access schema document: %w", err)
	}
	ac := &AccessControl{paths: make(map[string][]Permission)}
	for key, raw := range root {
		if err := ac.flatten(key, raw); err != nil {
			return nil, err
		}
	}
	return ac, nil
}

// DefaultAccessControl loads the schema shipped with this module.
func DefaultAccessControl() *AccessControl {
	ac, err := NewAccessControl(defaultSchemaDoc)
	if err != nil {
		panic(fmt.Sprintf("identity: invalid embedded schema.json: %v", err))
	}
	return ac
}

func (ac *AccessControl) flatten(prefix string, raw json.RawMessage) error {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(raw, &node); err != nil {
		return fmt.Errorf("access schema node %q: %w", prefix, err)
	}

	if permsRaw, ok := node["permissions"]; ok {
		var perms []Permission
		if err := json.Unmarshal(permsRaw, &perms); err != nil {
			return fmt.Errorf("access schema node %q permissions: %w", prefix, err)
		}
		ac.paths[prefix] = perms
	}

	for key, child := range node {
		if key == "permissions" {
			continue
		}
		childPath := prefix + "->" + key
		if err := ac.flatten(childPath, child); err != nil {
			return err
		}
	}
	return nil
}

// WhoCan returns every path granted the given permission.
func (ac *AccessControl) WhoCan(permission Permission) []string {
	var out []string
	for path, perms := range ac.paths {
		for _, p := range perms {
			if p == permission {
				out = append(out, path)
				break
			}
		}
	}
	return out
}

// WhatCan returns the permission set for an exact path, empty if the path
// has no schema entry.
func (ac *AccessControl) WhatCan(path string) []Permission {
	return ac.paths[path]
}

// Can reports whether path grants permission.
func (ac *AccessControl) Can(path string, permission Permission) bool {
	for _, p := range ac.paths[path] {
		if p == permission {
			return true
		}
	}
	return false
}

// NormalizePathSegment uppercases and trims a raw segment before it is
// joined into a path (path.go builds segments from Role/EntityKind
// constants, which are already canonical, but this guards hand-built
// paths used in tests/tooling).
func NormalizePathSegment(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
