// Package disk loads a raw ".bin" disk image into an address-keyed sector
// map. Grounded on jeebie/core.go's NewWithFile loader idiom, generalized
// from a flat ROM byte slice to a CD-ROM sector index, and using afero so
// tests can exercise an in-memory filesystem instead of a real .bin file.
package disk

import (
	"fmt"

	"github.com/spf13/afero"
)

// rawSectorSize is the on-disk size of a raw Mode 1/Mode 2 sector image:
// 12-byte sync + 4-byte header + 8-byte subheader + 2328 bytes of data/EDC.
const rawSectorSize = 2352

// Address identifies a sector by its BCD minute/second/frame location, the
// same addressing scheme the CD-ROM controller's Setloc command consumes.
type Address struct {
	Min, Sec, Frame uint8
}

// Next returns the address immediately following a, applying the BCD
// carry/fix-up rules: frame wraps at 0x75, sec wraps at 0x60, and any
// resulting nibble above 9 is corrected by adding 6, per spec.md §4.8.
func (a Address) Next() Address {
	frame := bcdInc(a.Frame)
	sec, min := a.Sec, a.Min
	if frame == 0x75 {
		frame = 0
		sec = bcdInc(sec)
		if sec == 0x60 {
			sec = 0
			min = bcdInc(min)
		}
	}
	return Address{Min: min, Sec: sec, Frame: frame}
}

func bcdInc(v uint8) uint8 {
	v++
	if v&0x0F > 9 {
		v += 6
	}
	return v
}

// Sector is one raw 2352-byte sector read verbatim off the image (12-byte
// sync + 4-byte header + 8-byte subheader + 2328 bytes of data/EDC), kept in
// its on-disk layout since the CD-ROM controller's RDDATA offsets (0x00 and
// 0x0C) are specified directly in terms of the raw sector.
type Sector struct {
	Raw [rawSectorSize]byte
}

// Header returns the 4-byte min/sec/frame/mode header at raw offset 12.
func (s Sector) Header() [4]byte {
	var h [4]byte
	copy(h[:], s.Raw[12:16])
	return h
}

// Image is a loaded disk: sectors addressed by their BCD location. A nil
// Image (no disk inserted) is a valid, empty state per spec.md §6.
type Image struct {
	sectors map[Address]Sector
}

// Load reads a raw .bin image from fs at path and indexes it by sector
// address, starting at the conventional 00:02:00 data start (the first two
// seconds are the lead-in).
func Load(fs afero.Fs, path string) (*Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("disk: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("disk: stat %s: %w", path, err)
	}
	if info.Size()%rawSectorSize != 0 {
		return nil, fmt.Errorf("disk: %s size %d is not a multiple of %d-byte sectors", path, info.Size(), rawSectorSize)
	}

	n := int(info.Size() / rawSectorSize)
	img := &Image{sectors: make(map[Address]Sector, n)}

	buf := make([]byte, rawSectorSize)
	addr := Address{Min: 0, Sec: 0x02, Frame: 0}
	for i := 0; i < n; i++ {
		if _, err := f.Read(buf); err != nil {
			return nil, fmt.Errorf("disk: read sector %d of %s: %w", i, path, err)
		}

		var s Sector
		copy(s.Raw[:], buf)
		img.sectors[addr] = s
		addr = addr.Next()
	}

	return img, nil
}

// Sector looks up a sector by address. ok is false if the disk has no
// sector there (past the end of the image, or no disk loaded).
func (img *Image) Sector(a Address) (Sector, bool) {
	if img == nil {
		return Sector{}, false
	}
	s, ok := img.sectors[a]
	return s, ok
}

// Len reports how many sectors the image holds.
func (img *Image) Len() int {
	if img == nil {
		return 0
	}
	return len(img.sectors)
}
