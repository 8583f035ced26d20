package onnx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ParseFile reads and parses an ONNX model file.
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return Parse(data)
}

// Parse decodes an ONNX model from protobuf bytes.
func Parse(data []byte) (*ModelProto, error) {
	model := &ModelProto{}
	if err := decodeModel(newDecoder(data), model); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	return model, nil
}

// Protobuf wire types.
const (
	wireVarint = 0
	wire64Bit  = 1
	wireBytes  = 2
	wire32Bit  = 5
)

// decoder walks a protobuf buffer. Embedded messages get their own
// decoder over the length-delimited sub-slice.
type decoder struct {
	data []byte
	pos  int
}

func newDecoder(data []byte) *decoder {
	return &decoder{data: data}
}

func (d *decoder) more() bool {
	return d.pos < len(d.data)
}

func (d *decoder) tag() (num, wire int, err error) {
	v, err := d.varint()
	if err != nil {
		return 0, 0, err
	}
	return int(v >> 3), int(v & 0x7), nil
}

func (d *decoder) varint() (int64, error) {
	var out uint64
	var shift uint
	for {
		if d.pos >= len(d.data) {
			return 0, io.ErrUnexpectedEOF
		}
		b := d.data[d.pos]
		d.pos++
		out |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return int64(out), nil
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.New("varint overflow")
		}
	}
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.varint()
	if err != nil {
		return nil, err
	}
	if n < 0 || d.pos+int(n) > len(d.data) {
		return nil, io.ErrUnexpectedEOF
	}
	out := d.data[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return out, nil
}

func (d *decoder) str() (string, error) {
	b, err := d.bytes()
	return string(b), err
}

// embedded returns a decoder over a length-delimited sub-message.
func (d *decoder) embedded() (*decoder, error) {
	b, err := d.bytes()
	if err != nil {
		return nil, err
	}
	return newDecoder(b), nil
}

func (d *decoder) float32() (float32, error) {
	if d.pos+4 > len(d.data) {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint32(d.data[d.pos:])
	d.pos += 4
	return math.Float32frombits(bits), nil
}

func (d *decoder) skip(wire int) error {
	switch wire {
	case wireVarint:
		_, err := d.varint()
		return err
	case wire64Bit:
		if d.pos+8 > len(d.data) {
			return io.ErrUnexpectedEOF
		}
		d.pos += 8
		return nil
	case wireBytes:
		_, err := d.bytes()
		return err
	case wire32Bit:
		if d.pos+4 > len(d.data) {
			return io.ErrUnexpectedEOF
		}
		d.pos += 4
		return nil
	default:
		return fmt.Errorf("unknown wire type %d", wire)
	}
}

// packedInt64 reads a repeated int64 field, handling both packed and
// unpacked encodings.
func (d *decoder) packedInt64(wire int, dst []int64) ([]int64, error) {
	if wire != wireBytes {
		v, err := d.varint()
		if err != nil {
			return nil, err
		}
		return append(dst, v), nil
	}
	sub, err := d.embedded()
	if err != nil {
		return nil, err
	}
	for sub.more() {
		v, err := sub.varint()
		if err != nil {
			return nil, err
		}
		dst = append(dst, v)
	}
	return dst, nil
}

// packedFloat32 reads a repeated float field, handling both packed and
// unpacked encodings.
func (d *decoder) packedFloat32(wire int, dst []float32) ([]float32, error) {
	if wire != wireBytes {
		v, err := d.float32()
		if err != nil {
			return nil, err
		}
		return append(dst, v), nil
	}
	b, err := d.bytes()
	if err != nil {
		return nil, err
	}
	for i := 0; i+4 <= len(b); i += 4 {
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(b[i:])))
	}
	return dst, nil
}

func decodeModel(d *decoder, m *ModelProto) error {
	for d.more() {
		num, wire, err := d.tag()
		if err != nil {
			return err
		}
		switch num {
		case 1: // ir_version
			m.IRVersion, err = d.varint()
		case 2: // producer_name
			m.ProducerName, err = d.str()
		case 3: // producer_version
			m.ProducerVersion, err = d.str()
		case 4: // domain
			m.Domain, err = d.str()
		case 5: // model_version
			m.ModelVersion, err = d.varint()
		case 6: // doc_string
			m.DocString, err = d.str()
		case 7: // graph
			var sub *decoder
			if sub, err = d.embedded(); err == nil {
				m.Graph = &GraphProto{}
				err = decodeGraph(sub, m.Graph)
			}
		case 8: // opset_import
			var sub *decoder
			if sub, err = d.embedded(); err == nil {
				var opset OperatorSetID
				if err = decodeOperatorSetID(sub, &opset); err == nil {
					m.OpsetImport = append(m.OpsetImport, opset)
				}
			}
		case 14: // metadata_props
			var sub *decoder
			if sub, err = d.embedded(); err == nil {
				var entry StringStringEntry
				if err = decodeStringStringEntry(sub, &entry); err == nil {
					m.MetadataProps = append(m.MetadataProps, entry)
				}
			}
		default:
			err = d.skip(wire)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeGraph(d *decoder, g *GraphProto) error {
	for d.more() {
		num, wire, err := d.tag()
		if err != nil {
			return err
		}
		switch num {
		case 1: // node
			var sub *decoder
			if sub, err = d.embedded(); err == nil {
				var node NodeProto
				if err = decodeNode(sub, &node); err == nil {
					g.Nodes = append(g.Nodes, node)
				}
			}
		case 2: // name
			g.Name, err = d.str()
		case 5: // initializer
			var sub *decoder
			if sub, err = d.embedded(); err == nil {
				var t TensorProto
				if err = decodeTensor(sub, &t); err == nil {
					g.Initializers = append(g.Initializers, t)
				}
			}
		case 11: // input
			var sub *decoder
			if sub, err = d.embedded(); err == nil {
				var vi ValueInfoProto
				if err = decodeValueInfo(sub, &vi); err == nil {
					g.Inputs = append(g.Inputs, vi)
				}
			}
		case 12: // output
			var sub *decoder
			if sub, err = d.embedded(); err == nil {
				var vi ValueInfoProto
				if err = decodeValueInfo(sub, &vi); err == nil {
					g.Outputs = append(g.Outputs, vi)
				}
			}
		default:
			err = d.skip(wire)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeNode(d *decoder, n *NodeProto) error {
	for d.more() {
		num, wire, err := d.tag()
		if err != nil {
			return err
		}
		switch num {
		case 1: // input
			var s string
			if s, err = d.str(); err == nil {
				n.Inputs = append(n.Inputs, s)
			}
		case 2: // output
			var s string
			if s, err = d.str(); err == nil {
				n.Outputs = append(n.Outputs, s)
			}
		case 3: // name
			n.Name, err = d.str()
		case 4: // op_type
			n.OpType, err = d.str()
		case 5: // attribute
			var sub *decoder
			if sub, err = d.embedded(); err == nil {
				var attr AttributeProto
				if err = decodeAttribute(sub, &attr); err == nil {
					n.Attributes = append(n.Attributes, attr)
				}
			}
		case 7: // domain
			n.Domain, err = d.str()
		default:
			err = d.skip(wire)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeTensor(d *decoder, t *TensorProto) error {
	for d.more() {
		num, wire, err := d.tag()
		if err != nil {
			return err
		}
		switch num {
		case 1: // dims
			t.Dims, err = d.packedInt64(wire, t.Dims)
		case 2: // data_type
			var v int64
			if v, err = d.varint(); err == nil {
				t.DataType = int32(v)
			}
		case 4: // float_data
			t.FloatData, err = d.packedFloat32(wire, t.FloatData)
		case 5: // int32_data
			var vals []int64
			if vals, err = d.packedInt64(wire, nil); err == nil {
				for _, v := range vals {
					t.Int32Data = append(t.Int32Data, int32(v))
				}
			}
		case 7: // int64_data
			t.Int64Data, err = d.packedInt64(wire, t.Int64Data)
		case 8: // name
			t.Name, err = d.str()
		case 9: // raw_data
			t.RawData, err = d.bytes()
		default:
			err = d.skip(wire)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeValueInfo(d *decoder, vi *ValueInfoProto) error {
	for d.more() {
		num, wire, err := d.tag()
		if err != nil {
			return err
		}
		switch num {
		case 1: // name
			vi.Name, err = d.str()
		case 2: // type
			var sub *decoder
			if sub, err = d.embedded(); err == nil {
				vi.Type = &TypeProto{}
				err = decodeType(sub, vi.Type)
			}
		default:
			err = d.skip(wire)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeType(d *decoder, t *TypeProto) error {
	for d.more() {
		num, wire, err := d.tag()
		if err != nil {
			return err
		}
		if num != 1 { // tensor_type
			if err = d.skip(wire); err != nil {
				return err
			}
			continue
		}
		sub, err := d.embedded()
		if err != nil {
			return err
		}
		t.TensorType = &TensorTypeProto{}
		if err := decodeTensorType(sub, t.TensorType); err != nil {
			return err
		}
	}
	return nil
}

func decodeTensorType(d *decoder, t *TensorTypeProto) error {
	for d.more() {
		num, wire, err := d.tag()
		if err != nil {
			return err
		}
		switch num {
		case 1: // elem_type
			var v int64
			if v, err = d.varint(); err == nil {
				t.ElemType = int32(v)
			}
		case 2: // shape
			var sub *decoder
			if sub, err = d.embedded(); err == nil {
				t.Shape = &TensorShapeProto{}
				err = decodeTensorShape(sub, t.Shape)
			}
		default:
			err = d.skip(wire)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeTensorShape(d *decoder, t *TensorShapeProto) error {
	for d.more() {
		num, wire, err := d.tag()
		if err != nil {
			return err
		}
		if num != 1 { // dim
			if err = d.skip(wire); err != nil {
				return err
			}
			continue
		}
		sub, err := d.embedded()
		if err != nil {
			return err
		}
		var dim DimensionProto
		if err := decodeDimension(sub, &dim); err != nil {
			return err
		}
		t.Dims = append(t.Dims, dim)
	}
	return nil
}

func decodeDimension(d *decoder, dim *DimensionProto) error {
	for d.more() {
		num, wire, err := d.tag()
		if err != nil {
			return err
		}
		switch num {
		case 1: // dim_value
			dim.DimValue, err = d.varint()
		case 2: // dim_param
			dim.DimParam, err = d.str()
		default:
			err = d.skip(wire)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeAttribute(d *decoder, a *AttributeProto) error {
	for d.more() {
		num, wire, err := d.tag()
		if err != nil {
			return err
		}
		switch num {
		case 1: // name
			a.Name, err = d.str()
		case 2: // f
			a.F, err = d.float32()
		case 3: // i
			a.I, err = d.varint()
		case 4: // s
			a.S, err = d.bytes()
		case 5: // t (embedded tensor, used by Constant nodes)
			var sub *decoder
			if sub, err = d.embedded(); err == nil {
				a.T = &TensorProto{}
				err = decodeTensor(sub, a.T)
			}
		case 7: // floats
			a.Floats, err = d.packedFloat32(wire, a.Floats)
		case 8: // ints
			a.Ints, err = d.packedInt64(wire, a.Ints)
		case 9: // strings
			var b []byte
			if b, err = d.bytes(); err == nil {
				a.Strings = append(a.Strings, b)
			}
		case 20: // type
			var v int64
			if v, err = d.varint(); err == nil {
				a.Type = int32(v)
			}
		default:
			err = d.skip(wire)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeOperatorSetID(d *decoder, o *OperatorSetID) error {
	for d.more() {
		num, wire, err := d.tag()
		if err != nil {
			return err
		}
		switch num {
		case 1: // domain
			o.Domain, err = d.str()
		case 2: // version
			o.Version, err = d.varint()
		default:
			err = d.skip(wire)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeStringStringEntry(d *decoder, e *StringStringEntry) error {
	for d.more() {
		num, wire, err := d.tag()
		if err != nil {
			return err
		}
		switch num {
		case 1: // key
			e.Key, err = d.str()
		case 2: // value
			e.Value, err = d.str()
		default:
			err = d.skip(wire)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
