package invoice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// mirrorVersion is the format version written to the durable mirror
const mirrorVersion = 1

// mirrorEnvelope is the on-disk shape of the durable mirror
type mirrorEnvelope struct {
	Version  int       `json:"version"`
	Invoices []Invoice `json:"invoices"`
}

var errMirrorVersion = errors.New("unsupported mirror version")

// encodeMirror serializes the whole collection in store order.
func encodeMirror(invoices []Invoice) ([]byte, error) {
	if invoices == nil {
		invoices = []Invoice{}
	}
	data, err := json.Marshal(mirrorEnvelope{Version: mirrorVersion, Invoices: invoices})
	if err != nil {
		return nil, fmt.Errorf("marshaling invoices: %w", err)
	}
	return data, nil
}

// decodeMirror accepts the versioned envelope as well as the bare JSON
// array written by earlier releases.
func decodeMirror(data []byte) ([]Invoice, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty mirror")
	}

	if trimmed[0] == '[' {
		var invoices []Invoice
		if err := json.Unmarshal(trimmed, &invoices); err != nil {
			return nil, fmt.Errorf("unmarshaling invoices: %w", err)
		}
		return invoices, nil
	}

	var env mirrorEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("unmarshaling mirror: %w", err)
	}
	if env.Version < 1 || env.Version > mirrorVersion {
		return nil, fmt.Errorf("%w: %d", errMirrorVersion, env.Version)
	}
	return env.Invoices, nil
}
