package ir

import "fmt"

// SizedValue is an unsigned value truncated to Size bits.
type SizedValue struct {
	Size  int64  `json:"size"`
	Value uint64 `json:"value"`
}

// NewSizedValue truncates value to size bits.
func NewSizedValue(size int64, value uint64) SizedValue {
	return SizedValue{Size: size, Value: value & Mask(size)}
}

// Mask returns a mask with the low size bits set.
func Mask(size int64) uint64 {
	if size >= 64 {
		return ^uint64(0)
	}
	if size <= 0 {
		return 0
	}
	return (uint64(1) << uint(size)) - 1
}

// Signed returns the value sign-extended from Size bits.
func (v SizedValue) Signed() int64 {
	if v.Size <= 0 || v.Size >= 64 {
		return int64(v.Value)
	}
	shift := uint(64 - v.Size)
	return int64(v.Value<<shift) >> shift
}

func (v SizedValue) String() string {
	return fmt.Sprintf("0x%x:%d", v.Value, v.Size)
}
