// Package frontmatter splits template sources into a YAML metadata block and
// the body that follows it.
//
// A block is present only when the very first line of the source is "---".
// It runs until the next line that is exactly "---" (or the YAML document end
// marker "..."), and its contents must decode to a mapping:
//
//	---
//	title: Hello
//	layout: main
//	---
//	<p>{{ title }}</p>
//
// Sources without a block are returned unchanged with an empty variable map.
// Malformed blocks fail with an error wrapping [ErrInvalidFrontMatter] so that
// callers never silently drop directives such as a layout reference.
package frontmatter
