package encoding

import (
	"encoding/json"
	"fmt"

	"github.com/synheart/consciousness-bridge/internal/models"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtobufEncoder encodes states as google.protobuf.Struct messages keyed
// by the same names as the JSON payload
type ProtobufEncoder struct{}

func NewProtobufEncoder() *ProtobufEncoder {
	return &ProtobufEncoder{}
}

func (e *ProtobufEncoder) Encode(state models.State) ([]byte, error) {
	pb, err := StateToStruct(state)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(pb)
}

func (e *ProtobufEncoder) ContentType() string {
	return "application/x-protobuf"
}

// StateToStruct converts a state into a protobuf Struct
func StateToStruct(state models.State) (*structpb.Struct, error) {
	fields, err := toMap(state)
	if err != nil {
		return nil, err
	}
	pb, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build struct: %w", err)
	}
	return pb, nil
}

// StructToState converts a protobuf Struct back into a state
func StructToState(pb *structpb.Struct) (models.State, error) {
	var state models.State
	data, err := pb.MarshalJSON()
	if err != nil {
		return state, fmt.Errorf("failed to marshal struct: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("failed to decode state: %w", err)
	}
	return state, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return fields, nil
}
