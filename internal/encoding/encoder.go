package encoding

import (
	"encoding/json"
	"fmt"
	"mime"
	"strings"

	"github.com/synheart/consciousness-bridge/internal/models"
)

// Format represents the encoding format
type Format string

const (
	FormatJSON     Format = "json"
	FormatProtobuf Format = "protobuf"
)

// Encoder encodes states to bytes
type Encoder interface {
	Encode(state models.State) ([]byte, error)
	ContentType() string
}

// JSONEncoder encodes states as JSON
type JSONEncoder struct {
	Indent bool
}

func NewJSONEncoder() *JSONEncoder {
	return &JSONEncoder{}
}

// NewIndentedJSONEncoder returns an encoder that pretty-prints with two spaces
func NewIndentedJSONEncoder() *JSONEncoder {
	return &JSONEncoder{Indent: true}
}

func (e *JSONEncoder) Encode(state models.State) ([]byte, error) {
	if e.Indent {
		return json.MarshalIndent(state, "", "  ")
	}
	return json.Marshal(state)
}

func (e *JSONEncoder) ContentType() string {
	return "application/json"
}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatProtobuf:
		return Format(s), nil
	}
	return "", fmt.Errorf("invalid format %q (expected: json|protobuf)", s)
}

// NewEncoder creates an encoder for the given format
func NewEncoder(format Format) Encoder {
	switch format {
	case FormatProtobuf:
		return NewProtobufEncoder()
	default:
		return NewJSONEncoder()
	}
}

// FormatForAccept picks the format an Accept header asks for. Anything that
// does not name protobuf gets JSON.
func FormatForAccept(accept string) Format {
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mediaType == "application/x-protobuf" || mediaType == "application/protobuf" {
			return FormatProtobuf
		}
	}
	return FormatJSON
}
