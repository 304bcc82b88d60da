// Package msbuild models MSBuild project documents and converts them
// to and from project XML.
//
// A Project is a tree of typed nodes (properties, items, conditional
// branches, targets, task declarations). The package provides three
// operations over that tree: ValidateProject reports every structural
// inconsistency in one pass, GenerateProjectXML renders validated trees
// to deterministic XML text with optional per-category canonical
// ordering, and Parse reconstructs a tree from project XML with
// comments retained as first-class nodes.
//
// All three operations are pure: they never mutate a tree, so a single
// Project is safe to validate and render concurrently.
package msbuild
