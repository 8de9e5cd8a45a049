package pad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewControllerHasEveryButtonReleased(t *testing.T) {
	c := New()
	assert.Equal(t, uint16(0xFFFF), c.Switches())
}

func TestSetButtonPressedClearsBit(t *testing.T) {
	c := New()
	c.SetButton(Cross, true)
	assert.Equal(t, uint16(0xFFFF&^uint16(Cross)), c.Switches())

	c.SetButton(Cross, false)
	assert.Equal(t, uint16(0xFFFF), c.Switches(), "releasing must restore the bit")
}

func TestMultipleButtonsComposeIndependently(t *testing.T) {
	c := New()
	c.SetButton(Up, true)
	c.SetButton(Start, true)
	assert.Equal(t, uint16(0xFFFF&^uint16(Up)&^uint16(Start)), c.Switches())

	c.SetButton(Up, false)
	assert.Equal(t, uint16(0xFFFF&^uint16(Start)), c.Switches(), "releasing one button must not affect another held button")
}
