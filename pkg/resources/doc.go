// Package resources resolves view identifiers to template files stored in an
// fs.FS.
//
// Identifiers are slash separated and extension-less ("blog/post"). Resolve
// tries the identifier as given, then with each configured extension, then,
// for directories, an "index" file with each extension.
package resources
