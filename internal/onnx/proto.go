package onnx

// Hand-written subset of the ONNX protobuf schema, covering what a
// converted recognition model actually carries. Field numbers live in
// parser.go next to the decode switches.

// ModelProto is the top-level ONNX model.
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

// GraphProto is the computation graph.
type GraphProto struct {
	Name         string
	Nodes        []NodeProto
	Inputs       []ValueInfoProto
	Outputs      []ValueInfoProto
	Initializers []TensorProto
}

// NodeProto is a single operation in the graph.
type NodeProto struct {
	Name       string
	OpType     string
	Domain     string
	Inputs     []string
	Outputs    []string
	Attributes []AttributeProto
}

// TensorProto carries weight data. RawData is the common encoding;
// the typed slices are the legacy per-type fields.
type TensorProto struct {
	Name      string
	DataType  int32
	Dims      []int64
	RawData   []byte
	FloatData []float32
	Int32Data []int32
	Int64Data []int64
}

// ValueInfoProto describes a graph input or output.
type ValueInfoProto struct {
	Name string
	Type *TypeProto
}

// TypeProto wraps the tensor type of a value.
type TypeProto struct {
	TensorType *TensorTypeProto
}

// TensorTypeProto holds element type and shape of a value.
type TensorTypeProto struct {
	ElemType int32
	Shape    *TensorShapeProto
}

// TensorShapeProto lists the dimensions of a value.
type TensorShapeProto struct {
	Dims []DimensionProto
}

// DimensionProto is one dimension: either a fixed value or a symbolic
// name such as "batch_size" for dynamic axes.
type DimensionProto struct {
	DimValue int64
	DimParam string
}

// AttributeProto is a node attribute.
type AttributeProto struct {
	Name    string
	Type    int32
	F       float32
	I       int64
	S       []byte
	T       *TensorProto
	Floats  []float32
	Ints    []int64
	Strings [][]byte
}

// OperatorSetID pins an operator domain to an opset version.
type OperatorSetID struct {
	Domain  string
	Version int64
}

// StringStringEntry is a key-value metadata pair.
type StringStringEntry struct {
	Key   string
	Value string
}

// TensorProto.DataType values.
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

// AttributeProto.Type values.
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
