package graph

// AttrKind tags the value held by an Attr.
type AttrKind int

// Attribute value kinds. ONNX also allows tensor- and graph-valued
// attributes; those are not carried by this editor.
const (
	AttrInt AttrKind = iota
	AttrFloat
	AttrString
	AttrInts
	AttrFloats
	AttrStrings
)

// Attr is one node attribute: a name plus a tagged scalar or array value.
// Attributes are treated as immutable once attached to a node; edits that
// need different attributes build new Attr values.
type Attr struct {
	Name    string
	Kind    AttrKind
	I       int64
	F       float32
	S       string
	Ints    []int64
	Floats  []float32
	Strings []string
}

// Value returns the attribute's payload as a plain Go value, for summaries
// and logging.
func (a *Attr) Value() any {
	switch a.Kind {
	case AttrInt:
		return a.I
	case AttrFloat:
		return a.F
	case AttrString:
		return a.S
	case AttrInts:
		return a.Ints
	case AttrFloats:
		return a.Floats
	case AttrStrings:
		return a.Strings
	default:
		return nil
	}
}
