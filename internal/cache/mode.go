package cache

import "errors"

// Mode is the process-wide operating mode. It is derived from configuration
// once at startup and never changes for the lifetime of the process.
type Mode int

const (
	// ModeReadWrite allows every operation.
	ModeReadWrite Mode = iota
	// ModeReadOnly rejects stores.
	ModeReadOnly
	// ModeWriteOnly rejects existence checks and fetches.
	ModeWriteOnly
)

// ModeFromFlags derives the operating mode from the two restrictive
// configuration flags. Setting both is a configuration error.
func ModeFromFlags(readOnly, writeOnly bool) (Mode, error) {
	switch {
	case readOnly && writeOnly:
		return ModeReadWrite, errors.New("read_only and write_only are mutually exclusive")
	case readOnly:
		return ModeReadOnly, nil
	case writeOnly:
		return ModeWriteOnly, nil
	default:
		return ModeReadWrite, nil
	}
}

// AllowsRead reports whether existence checks and fetches are permitted.
func (m Mode) AllowsRead() bool {
	return m != ModeWriteOnly
}

// AllowsWrite reports whether stores are permitted.
func (m Mode) AllowsWrite() bool {
	return m != ModeReadOnly
}

func (m Mode) String() string {
	switch m {
	case ModeReadOnly:
		return "read-only"
	case ModeWriteOnly:
		return "write-only"
	default:
		return "read-write"
	}
}
