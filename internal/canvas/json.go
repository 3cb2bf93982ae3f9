package canvas

import (
	"encoding/json"
	"fmt"

	"whiteboard/internal/domain"
)

// ParseElements decodes the element array wire format shared with the
// drawing surface and the sketch store. An empty or missing payload is a
// valid empty collection, not an error.
func ParseElements(data string) ([]domain.Element, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var elements []domain.Element
	if err := json.Unmarshal([]byte(data), &elements); err != nil {
		return nil, fmt.Errorf("parse elements: %w", err)
	}
	return elements, nil
}

func marshalElements(elements []domain.Element) ([]byte, error) {
	if elements == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(elements)
}

// EncodeElements serializes a collection to the wire format.
func EncodeElements(c Collection) (string, error) {
	data, err := marshalElements(c.Elements())
	if err != nil {
		return "", fmt.Errorf("encode elements: %w", err)
	}
	return string(data), nil
}
