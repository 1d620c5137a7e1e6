package dsig

import "strings"

// IsXPointer indica si la URI es una expresión XPointer ("#xpointer(" o "#xmlns(")
// en lugar de una referencia simple por Id. Solo clasifica, no evalúa.
func IsXPointer(uri string) bool {
	return strings.HasPrefix(uri, "#xpointer(") || strings.HasPrefix(uri, "#xmlns(")
}
