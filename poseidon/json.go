package poseidon

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// MarshalJSON serializes a Field via Hex(). Field's underlying
// fr.Element field is unexported, so the default struct marshaler would
// otherwise encode every Field as "{}" — this is the only serialization
// path snapshot.BoltStore and the published documents rely on.
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Hex())
}

// UnmarshalJSON parses the "0x"-prefixed hex form MarshalJSON produces.
func (f *Field) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if len(s) != 66 || s[0:2] != "0x" {
		return fmt.Errorf("poseidon: malformed field hex %q", s)
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return err
	}
	var b [32]byte
	copy(b[:], raw)
	parsed, err := FieldFromBytes32(b)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
