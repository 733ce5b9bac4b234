package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// Bytes decodes either a JSON array of octets, as sent by wallet adapters as a
// Uint8Array, or a base58 string.
type Bytes []byte

func (b *Bytes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		decoded, err := base58.Decode(s)
		if err != nil {
			return fmt.Errorf("invalid base58: %w", err)
		}
		*b = decoded
		return nil
	}

	var octets []int
	if err := json.Unmarshal(data, &octets); err != nil {
		return errors.New("bytes must be an array of octets or a base58 string")
	}
	out := make([]byte, len(octets))
	for i, v := range octets {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

func (b Bytes) MarshalJSON() ([]byte, error) {
	octets := make([]int, len(b))
	for i, v := range b {
		octets[i] = int(v)
	}
	return json.Marshal(octets)
}
