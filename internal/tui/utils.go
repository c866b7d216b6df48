// Copyright (c) 2025 Neomantra Corp

package tui

// maxInt is the generic integer max used to keep header padding
// non-negative when the terminal is narrower than the rendered labels.
func maxInt[I int | uint | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64](a, b I) I {
	if a > b {
		return a
	}
	return b
}
