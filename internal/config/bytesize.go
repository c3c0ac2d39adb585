package config

import (
	"encoding/json"

	"github.com/golfcast/golfcast/pkg/bytesize"
)

// ByteSize wraps bytesize.Size to support human-readable config values
// such as "500MB" or "2GB" via viper/mapstructure's TextUnmarshaler hook.
type ByteSize bytesize.Size

// ParseByteSize parses a human-readable byte size string into a ByteSize.
func ParseByteSize(s string) (ByteSize, error) {
	sz, err := bytesize.Parse(s)
	if err != nil {
		return 0, err
	}
	return ByteSize(sz), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	parsed, err := bytesize.Parse(string(text))
	if err != nil {
		return err
	}
	*b = ByteSize(parsed)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting either a byte size
// string or a raw integer byte count for backward compatibility.
func (b *ByteSize) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		parsed, err := bytesize.Parse(v)
		if err != nil {
			return err
		}
		*b = ByteSize(parsed)
	case float64:
		*b = ByteSize(int64(v))
	default:
		return &json.UnmarshalTypeError{Value: "bytesize", Type: nil}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (b ByteSize) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// MarshalText implements encoding.TextMarshaler.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Bytes returns the size in bytes.
func (b ByteSize) Bytes() int64 {
	return int64(b)
}

// Int64 returns the size as an int64.
func (b ByteSize) Int64() int64 {
	return int64(b)
}

// String implements fmt.Stringer.
func (b ByteSize) String() string {
	return bytesize.Format(bytesize.Size(b))
}
