// Package pongo expands templates with pongo2, a Django-syntax engine whose
// variable tags ({{ name }}) match the placeholders used by views. Filters,
// global data, and {% include %} partials from an fs.FS are supported.
package pongo
