package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// EncodeBest serializes a record, stamping the current versions.
func EncodeBest(rec BestRecord) ([]byte, error) {
	rec.SchemaVersion = CurrentSchemaVersion
	rec.CodecVersion = CurrentCodecVersion
	return json.Marshal(rec)
}

// DecodeBest deserializes a record and rejects unknown versions.
func DecodeBest(data []byte) (BestRecord, error) {
	var rec BestRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return BestRecord{}, err
	}
	if rec.SchemaVersion != CurrentSchemaVersion || rec.CodecVersion != CurrentCodecVersion {
		return BestRecord{}, fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, rec.SchemaVersion, rec.CodecVersion)
	}
	return rec, nil
}
