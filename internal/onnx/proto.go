// Package onnx implements the on-disk graph interchange format: a
// hand-written protobuf wire codec for the subset of ONNX a structural
// editor needs, and the conversion between the wire messages and the graph
// model.
package onnx

// Hand-written ONNX protobuf messages. Field numbers follow onnx.proto;
// fields the editor does not carry (segments, external data, sparse
// initializers, tensor/graph-valued attributes) are skipped on read and
// absent on write.

// ModelProto represents an ONNX model file.
type ModelProto struct {
	IRVersion       int64
	OpsetImport     []OperatorSetID
	ProducerName    string
	ProducerVersion string
	Domain          string
	ModelVersion    int64
	DocString       string
	Graph           *GraphProto
	MetadataProps   []StringStringEntry
}

// GraphProto represents the computation graph.
type GraphProto struct {
	Name         string
	Nodes        []NodeProto
	Inputs       []ValueInfoProto
	Outputs      []ValueInfoProto
	ValueInfo    []ValueInfoProto
	Initializers []TensorProto
	DocString    string
}

// NodeProto represents a single operator node.
type NodeProto struct {
	Name       string
	OpType     string
	Domain     string
	Inputs     []string
	Outputs    []string
	Attributes []AttributeProto
	DocString  string
}

// TensorProto represents a tensor (weights/initializers).
type TensorProto struct {
	Name      string
	DataType  int32
	Dims      []int64
	RawData   []byte    // raw binary data, the common case
	FloatData []float32 // legacy typed fields
	Int32Data []int32
	Int64Data []int64
}

// ValueInfoProto describes an input/output tensor specification.
type ValueInfoProto struct {
	Name string
	Type *TypeProto
}

// TypeProto describes a value type.
type TypeProto struct {
	TensorType *TensorTypeProto
}

// TensorTypeProto describes tensor element type and shape.
type TensorTypeProto struct {
	ElemType int32
	Shape    *TensorShapeProto
}

// TensorShapeProto describes tensor dimensions.
type TensorShapeProto struct {
	Dims []DimensionProto
}

// DimensionProto is a single dimension: a concrete value or a symbolic
// parameter name.
type DimensionProto struct {
	DimValue int64
	DimParam string
}

// AttributeProto represents a node attribute.
type AttributeProto struct {
	Name    string
	Type    int32
	F       float32
	I       int64
	S       []byte
	Floats  []float32
	Ints    []int64
	Strings [][]byte
}

// OperatorSetID identifies an opset version.
type OperatorSetID struct {
	Domain  string
	Version int64
}

// StringStringEntry is a key-value metadata pair.
type StringStringEntry struct {
	Key   string
	Value string
}

// ONNX element types (TensorProto.DataType).
const (
	TensorProtoUndefined = 0
	TensorProtoFloat     = 1
	TensorProtoUint8     = 2
	TensorProtoInt8      = 3
	TensorProtoUint16    = 4
	TensorProtoInt16     = 5
	TensorProtoInt32     = 6
	TensorProtoInt64     = 7
	TensorProtoString    = 8
	TensorProtoBool      = 9
	TensorProtoFloat16   = 10
	TensorProtoDouble    = 11
	TensorProtoUint32    = 12
	TensorProtoUint64    = 13
)

// ONNX attribute types (AttributeProto.Type).
const (
	AttributeProtoUndefined = 0
	AttributeProtoFloat     = 1
	AttributeProtoInt       = 2
	AttributeProtoString    = 3
	AttributeProtoTensor    = 4
	AttributeProtoGraph     = 5
	AttributeProtoFloats    = 6
	AttributeProtoInts      = 7
	AttributeProtoStrings   = 8
)

// Protobuf field numbers, shared by the reader and the writer so the two
// cannot drift apart.
const (
	fieldModelIRVersion       = 1
	fieldModelProducerName    = 2
	fieldModelProducerVersion = 3
	fieldModelDomain          = 4
	fieldModelVersion         = 5
	fieldModelDocString       = 6
	fieldModelGraph           = 7
	fieldModelOpsetImport     = 8
	fieldModelMetadataProps   = 14

	fieldGraphNode        = 1
	fieldGraphName        = 2
	fieldGraphInitializer = 5
	fieldGraphDocString   = 10
	fieldGraphInput       = 11
	fieldGraphOutput      = 12
	fieldGraphValueInfo   = 13

	fieldNodeInput     = 1
	fieldNodeOutput    = 2
	fieldNodeName      = 3
	fieldNodeOpType    = 4
	fieldNodeAttribute = 5
	fieldNodeDocString = 6
	fieldNodeDomain    = 7

	fieldTensorDims      = 1
	fieldTensorDataType  = 2
	fieldTensorFloatData = 4
	fieldTensorInt32Data = 5
	fieldTensorInt64Data = 7
	fieldTensorName      = 8
	fieldTensorRawData   = 9

	fieldValueInfoName = 1
	fieldValueInfoType = 2

	fieldTypeTensorType = 1

	fieldTensorTypeElem  = 1
	fieldTensorTypeShape = 2

	fieldShapeDim = 1

	fieldDimValue = 1
	fieldDimParam = 2

	fieldAttrName    = 1
	fieldAttrF       = 2
	fieldAttrI       = 3
	fieldAttrS       = 4
	fieldAttrFloats  = 7
	fieldAttrInts    = 8
	fieldAttrStrings = 9
	fieldAttrType    = 20

	fieldOpsetDomain  = 1
	fieldOpsetVersion = 2

	fieldEntryKey   = 1
	fieldEntryValue = 2
)
