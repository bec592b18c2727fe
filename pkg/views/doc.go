// Package views composes templates into rendered pages.
//
// A Composer resolves a view identifier through Resources, splits the source
// into front matter and body, expands the body with an Expander, optionally
// post-processes it with a Transformer, and then wraps the result in the
// layout named by the "layout" front-matter key. Layouts live under
// "_layouts/" and may themselves declare a layout, forming a chain that ends
// at the first template without one.
//
// The child body reaches its parent through the literal placeholder
// "[[body]]": every template sees the variable "body" set to that token, and
// once the parent has been fully expanded each occurrence of the token is
// replaced with the child's output. Expansion always happens before the
// splice.
//
// Composers hold no mutable state and are safe for concurrent use as long as
// the injected collaborators are.
package views
