package lang

import (
	"encoding/json"
	"strings"
)

// MarshalJSON implements json.Marshaler for Function.
func (f *Function) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.ToMap())
}

// ToMap converts the function to a native Go map structure. Segment
// expressions are rendered in canonical source syntax.
func (f *Function) ToMap() map[string]any {
	segments := make([]any, len(f.Segments))

	for i, seg := range f.Segments {
		var expr strings.Builder

		formatNode(&expr, seg.Expr, 0)

		segments[i] = map[string]any{
			"lower": seg.Lower,
			"upper": seg.Upper,
			"expr":  expr.String(),
		}
	}

	result := map[string]any{
		"segments": segments,
	}

	if f.Citation != "" {
		result["citation"] = f.Citation
	}

	if refs := f.References(); len(refs) > 0 {
		result["references"] = refs
	}

	return result
}
