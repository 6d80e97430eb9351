package recorder

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/synheart/consciousness-bridge/internal/encoding"
	"github.com/synheart/consciousness-bridge/internal/models"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoWriter writes samples as varint length-delimited google.protobuf.Struct
// messages
type ProtoWriter struct {
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

// NewProtoWriter creates path, truncating an existing file
func NewProtoWriter(path string) (*ProtoWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}
	return &ProtoWriter{file: file, writer: bufio.NewWriter(file)}, nil
}

// Write appends one length-prefixed sample
func (w *ProtoWriter) Write(sample models.Sample) error {
	pb, err := sampleToStruct(sample)
	if err != nil {
		return err
	}
	data, err := proto.Marshal(pb)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.writer.Write(protowire.AppendVarint(nil, uint64(len(data)))); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}
	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write sample: %w", err)
	}
	return nil
}

// Close flushes and closes the file
func (w *ProtoWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush buffer: %w", err)
	}
	return w.file.Close()
}

// ReadProto decodes every sample from a stream written by ProtoWriter
func ReadProto(r io.Reader) ([]models.Sample, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}

	var samples []models.Sample
	for len(data) > 0 {
		msg, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("corrupt record %d: %w", len(samples)+1, protowire.ParseError(n))
		}
		data = data[n:]

		var pb structpb.Struct
		if err := proto.Unmarshal(msg, &pb); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %d: %w", len(samples)+1, err)
		}
		sample, err := structToSample(&pb)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func sampleToStruct(sample models.Sample) (*structpb.Struct, error) {
	state, err := encoding.StateToStruct(sample.State)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"run_id":    structpb.NewStringValue(sample.RunID),
		"sequence":  structpb.NewNumberValue(float64(sample.Sequence)),
		"elapsed_s": structpb.NewNumberValue(sample.Elapsed),
		"state":     structpb.NewStructValue(state),
	}}, nil
}

func structToSample(pb *structpb.Struct) (models.Sample, error) {
	fields := pb.GetFields()
	if fields["state"].GetStructValue() == nil {
		return models.Sample{}, fmt.Errorf("record has no state")
	}
	state, err := encoding.StructToState(fields["state"].GetStructValue())
	if err != nil {
		return models.Sample{}, err
	}
	return models.NewSample(
		fields["run_id"].GetStringValue(),
		int64(fields["sequence"].GetNumberValue()),
		fields["elapsed_s"].GetNumberValue(),
		state,
	), nil
}
