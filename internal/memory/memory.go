// Package memory implements the fixed-size byte buffers owned by the bus:
// main RAM, the BIOS ROM image, and the scratchpad. Each is a flat byte
// slice with little-endian 8/16/32-bit accessors; nothing here decodes
// addresses or owns device registers, that is the bus's job. The GPU's
// VRAM is a separate halfword-addressed array owned by internal/gpu.
package memory

import "fmt"

// RAMSize is the PS1's 2 MiB of main memory.
const RAMSize = 2 * 1024 * 1024

// BIOSSize is the fixed size of the BIOS ROM image; anything else is rejected
// by the loader in internal/disk.
const BIOSSize = 512 * 1024

// Buffer is a flat byte-addressed store with little-endian accessors.
type Buffer struct {
	name string
	data []byte
}

// NewBuffer allocates a zeroed buffer of the given size.
func NewBuffer(name string, size int) *Buffer {
	return &Buffer{name: name, data: make([]byte, size)}
}

// NewBufferFromBytes wraps an existing byte slice (e.g. a loaded BIOS image).
func NewBufferFromBytes(name string, data []byte) *Buffer {
	return &Buffer{name: name, data: data}
}

// Len returns the buffer's size in bytes.
func (b *Buffer) Len() int { return len(b.data) }

// Bytes exposes the underlying slice for bulk copies (DMA, disk sector
// loads, PSX-EXE side-loading).
func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) mask(offset uint32) uint32 {
	return offset % uint32(len(b.data))
}

// Read8 reads a single byte, wrapping the offset into the buffer's size.
func (b *Buffer) Read8(offset uint32) uint8 {
	return b.data[b.mask(offset)]
}

// Write8 writes a single byte, wrapping the offset into the buffer's size.
func (b *Buffer) Write8(offset uint32, value uint8) {
	b.data[b.mask(offset)] = value
}

// Read16 reads a little-endian halfword. offset must be 2-byte aligned;
// callers (the bus) are responsible for raising AdEL on misalignment.
func (b *Buffer) Read16(offset uint32) uint16 {
	o := b.mask(offset)
	return uint16(b.data[o]) | uint16(b.data[o+1])<<8
}

// Write16 writes a little-endian halfword.
func (b *Buffer) Write16(offset uint32, value uint16) {
	o := b.mask(offset)
	b.data[o] = byte(value)
	b.data[o+1] = byte(value >> 8)
}

// Read32 reads a little-endian word. offset must be 4-byte aligned.
func (b *Buffer) Read32(offset uint32) uint32 {
	o := b.mask(offset)
	return uint32(b.data[o]) | uint32(b.data[o+1])<<8 | uint32(b.data[o+2])<<16 | uint32(b.data[o+3])<<24
}

// Write32 writes a little-endian word.
func (b *Buffer) Write32(offset uint32, value uint32) {
	o := b.mask(offset)
	b.data[o] = byte(value)
	b.data[o+1] = byte(value >> 8)
	b.data[o+2] = byte(value >> 16)
	b.data[o+3] = byte(value >> 24)
}

func (b *Buffer) String() string {
	return fmt.Sprintf("%s[%d bytes]", b.name, len(b.data))
}
