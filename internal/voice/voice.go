// Package voice defines the fixed set of voices the synthesis engine supports.
package voice

// Default is the voice used when a request does not name one.
const Default = "alba"

// All lists the supported voice names in canonical order.
var All = []string{"alba", "marius", "javert", "jean", "fantine", "cosette", "eponine", "azelma"}

// Valid reports whether name is a supported voice.
func Valid(name string) bool {
	for _, v := range All {
		if v == name {
			return true
		}
	}
	return false
}

// List returns a copy of the supported voice names.
func List() []string {
	out := make([]string, len(All))
	copy(out, All)
	return out
}
