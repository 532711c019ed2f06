package sparkplug

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Payload field numbers from sparkplug_b.proto.
const (
	payloadTimestamp protowire.Number = 1
	payloadMetrics   protowire.Number = 2
	payloadSeq       protowire.Number = 3
	payloadUUID      protowire.Number = 4
	payloadBody      protowire.Number = 5
)

// Metric field numbers from sparkplug_b.proto. Metadata (8), properties (9),
// datasets (17) and templates (18) are not declared and decode as unknown
// fields.
const (
	metricName      protowire.Number = 1
	metricAlias     protowire.Number = 2
	metricTimestamp protowire.Number = 3
	metricDataType  protowire.Number = 4
	metricHistory   protowire.Number = 5
	metricTransient protowire.Number = 6
	metricIsNull    protowire.Number = 7
	metricInt       protowire.Number = 10
	metricLong      protowire.Number = 11
	metricFloat     protowire.Number = 12
	metricDouble    protowire.Number = 13
	metricBool      protowire.Number = 14
	metricString    protowire.Number = 15
	metricBytes     protowire.Number = 16
)

const protoPackage = "org.eclipse.tahu.protobuf"

// schema holds the resolved descriptors of the Payload and Metric messages.
type schema struct {
	payload protoreflect.MessageDescriptor
	metric  protoreflect.MessageDescriptor
	value   protoreflect.OneofDescriptor
}

var wire = mustSchema()

func mustSchema() *schema {
	s, err := newSchema()
	if err != nil {
		panic(fmt.Sprintf("sparkplug: invalid payload schema: %v", err))
	}
	return s
}

func newSchema() (*schema, error) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("sparkplug_b.proto"),
		Package: proto.String(protoPackage),
		Syntax:  proto.String("proto2"),
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("Payload"),
			Field: []*descriptorpb.FieldDescriptorProto{
				field("timestamp", payloadTimestamp, descriptorpb.FieldDescriptorProto_TYPE_UINT64),
				repeated("metrics", payloadMetrics, "."+protoPackage+".Payload.Metric"),
				field("seq", payloadSeq, descriptorpb.FieldDescriptorProto_TYPE_UINT64),
				field("uuid", payloadUUID, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				field("body", payloadBody, descriptorpb.FieldDescriptorProto_TYPE_BYTES),
			},
			NestedType: []*descriptorpb.DescriptorProto{{
				Name: proto.String("Metric"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("name", metricName, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					field("alias", metricAlias, descriptorpb.FieldDescriptorProto_TYPE_UINT64),
					field("timestamp", metricTimestamp, descriptorpb.FieldDescriptorProto_TYPE_UINT64),
					field("datatype", metricDataType, descriptorpb.FieldDescriptorProto_TYPE_UINT32),
					field("is_historical", metricHistory, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
					field("is_transient", metricTransient, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
					field("is_null", metricIsNull, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
					oneof("int_value", metricInt, descriptorpb.FieldDescriptorProto_TYPE_UINT32),
					oneof("long_value", metricLong, descriptorpb.FieldDescriptorProto_TYPE_UINT64),
					oneof("float_value", metricFloat, descriptorpb.FieldDescriptorProto_TYPE_FLOAT),
					oneof("double_value", metricDouble, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					oneof("boolean_value", metricBool, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
					oneof("string_value", metricString, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					oneof("bytes_value", metricBytes, descriptorpb.FieldDescriptorProto_TYPE_BYTES),
				},
				OneofDecl: []*descriptorpb.OneofDescriptorProto{{Name: proto.String("value")}},
			}},
		}},
	}

	fd, err := protodesc.NewFile(file, new(protoregistry.Files))
	if err != nil {
		return nil, err
	}

	payload := fd.Messages().ByName("Payload")
	metric := payload.Messages().ByName("Metric")
	return &schema{
		payload: payload,
		metric:  metric,
		value:   metric.Oneofs().ByName("value"),
	}, nil
}

func field(name string, num protowire.Number, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(int32(num)),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func repeated(name string, num protowire.Number, typeName string) *descriptorpb.FieldDescriptorProto {
	f := field(name, num, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	f.TypeName = proto.String(typeName)
	return f
}

func oneof(name string, num protowire.Number, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	f := field(name, num, typ)
	f.OneofIndex = proto.Int32(0)
	return f
}

func (s *schema) payloadField(num protowire.Number) protoreflect.FieldDescriptor {
	return s.payload.Fields().ByNumber(num)
}

func (s *schema) metricField(num protowire.Number) protoreflect.FieldDescriptor {
	return s.metric.Fields().ByNumber(num)
}
