package views

const (
	// BodyKey is the reserved variable holding BodyPlaceholder.
	BodyKey = "body"
	// BodyPlaceholder marks where a layout receives its child's output.
	BodyPlaceholder = "[[body]]"
	// LayoutKey is the front-matter key naming a parent layout.
	LayoutKey = "layout"
	// DefaultLayoutsDir is the directory layout names are resolved against.
	DefaultLayoutsDir = "_layouts"
)

// Merge returns a new table holding base overlaid with overrides. Neither
// input is modified. BodyKey is always set to BodyPlaceholder, whatever either
// input says.
func Merge(base, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overrides)+1)
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range overrides {
		merged[key] = value
	}
	merged[BodyKey] = BodyPlaceholder
	return merged
}
