package domain

import (
	"encoding/json"
	"fmt"
)

// AccountRecord is the full persisted account document.
// It is written to the account slot after every mutation and read back
// once at startup.
type AccountRecord struct {
	Profile         Profile `json:"profile"`
	IsAuthenticated bool    `json:"is_authenticated"`
	StatusRecord
	Settings Settings `json:"settings"`
}

// NewAccountRecord returns the logged-out record.
func NewAccountRecord() AccountRecord {
	return AccountRecord{Settings: DefaultSettings()}
}

// IsEmpty returns true if the record holds no account.
func (a AccountRecord) IsEmpty() bool {
	return a.Status == StatusUnset && !a.IsAuthenticated && a.Profile.IsEmpty()
}

// EncodeAccountRecord serializes a record for a slot.
func EncodeAccountRecord(a AccountRecord) ([]byte, error) {
	return json.Marshal(a)
}

// DecodeAccountRecord parses a slot value. Missing settings are filled with
// defaults. The status record is returned as stored; restoring its invariant
// is left to the caller (see StatusRecord.Normalize).
func DecodeAccountRecord(b []byte) (AccountRecord, error) {
	rec := AccountRecord{Settings: DefaultSettings()}
	if len(b) == 0 {
		return rec, nil
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return NewAccountRecord(), fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	rec.Settings = rec.Settings.fill()
	return rec, nil
}
