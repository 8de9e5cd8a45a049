package disk

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressNext(t *testing.T) {
	tests := []struct {
		name string
		in   Address
		want Address
	}{
		{"plain increment", Address{Min: 0, Sec: 0x02, Frame: 0x10}, Address{Min: 0, Sec: 0x02, Frame: 0x11}},
		{"frame wraps into seconds", Address{Min: 0, Sec: 0x02, Frame: 0x74}, Address{Min: 0, Sec: 0x03, Frame: 0x00}},
		{"seconds wrap into minutes", Address{Min: 0x00, Sec: 0x59, Frame: 0x74}, Address{Min: 0x01, Sec: 0x00, Frame: 0x00}},
		{"BCD fixup on minute carry", Address{Min: 0x09, Sec: 0x59, Frame: 0x74}, Address{Min: 0x10, Sec: 0x00, Frame: 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Next())
		})
	}
}

func TestLoadIndexesSectorsSequentially(t *testing.T) {
	fs := afero.NewMemMapFs()
	const sectors = 3
	data := make([]byte, rawSectorSize*sectors)
	for i := 0; i < sectors; i++ {
		data[i*rawSectorSize+16] = byte(i) // marker inside the sector's data region
	}
	require.NoError(t, afero.WriteFile(fs, "game.bin", data, 0644))

	img, err := Load(fs, "game.bin")
	require.NoError(t, err)
	assert.Equal(t, sectors, img.Len())

	addr := Address{Min: 0, Sec: 0x02, Frame: 0}
	for i := 0; i < sectors; i++ {
		s, ok := img.Sector(addr)
		require.True(t, ok, "sector %d should be present", i)
		assert.Equal(t, byte(i), s.Raw[16])
		addr = addr.Next()
	}

	_, ok := img.Sector(addr)
	assert.False(t, ok, "reading past the last sector should miss")
}

func TestLoadRejectsUnalignedImage(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.bin", make([]byte, 100), 0644))

	_, err := Load(fs, "bad.bin")
	assert.Error(t, err)
}

func TestNilImageSectorLookup(t *testing.T) {
	var img *Image
	_, ok := img.Sector(Address{})
	assert.False(t, ok)
	assert.Equal(t, 0, img.Len())
}
