package fire

import "github.com/dverney/emberdeck/internal/st7789"

// MaxHeat is the hottest cell value and the last palette index.
const MaxHeat = PaletteSize - 1

// PaletteSize is the number of heat levels.
const PaletteSize = 37

// palette maps heat to RGB565, near-black through dark reds, orange and
// yellow up to white. Index 0 is a very dark grey rather than pure black so
// the flame boundary stays soft. The component values are the classic PSX
// fire gradient.
var palette = [PaletteSize]uint16{
	st7789.RGB565(0x07, 0x07, 0x07),
	st7789.RGB565(0x1F, 0x07, 0x07),
	st7789.RGB565(0x2F, 0x0F, 0x07),
	st7789.RGB565(0x47, 0x0F, 0x07),
	st7789.RGB565(0x57, 0x17, 0x07),
	st7789.RGB565(0x67, 0x1F, 0x07),
	st7789.RGB565(0x77, 0x1F, 0x07),
	st7789.RGB565(0x8F, 0x27, 0x07),
	st7789.RGB565(0x9F, 0x2F, 0x07),
	st7789.RGB565(0xAF, 0x3F, 0x07),
	st7789.RGB565(0xBF, 0x47, 0x07),
	st7789.RGB565(0xC7, 0x47, 0x07),
	st7789.RGB565(0xDF, 0x4F, 0x07),
	st7789.RGB565(0xDF, 0x57, 0x07),
	st7789.RGB565(0xDF, 0x57, 0x07),
	st7789.RGB565(0xD7, 0x5F, 0x07),
	st7789.RGB565(0xD7, 0x5F, 0x07),
	st7789.RGB565(0xD7, 0x67, 0x0F),
	st7789.RGB565(0xCF, 0x6F, 0x0F),
	st7789.RGB565(0xCF, 0x77, 0x0F),
	st7789.RGB565(0xCF, 0x7F, 0x0F),
	st7789.RGB565(0xCF, 0x87, 0x17),
	st7789.RGB565(0xC7, 0x87, 0x17),
	st7789.RGB565(0xC7, 0x8F, 0x17),
	st7789.RGB565(0xC7, 0x97, 0x1F),
	st7789.RGB565(0xBF, 0x9F, 0x1F),
	st7789.RGB565(0xBF, 0x9F, 0x1F),
	st7789.RGB565(0xBF, 0xA7, 0x27),
	st7789.RGB565(0xBF, 0xA7, 0x27),
	st7789.RGB565(0xBF, 0xAF, 0x2F),
	st7789.RGB565(0xB7, 0xAF, 0x2F),
	st7789.RGB565(0xB7, 0xB7, 0x2F),
	st7789.RGB565(0xB7, 0xB7, 0x37),
	st7789.RGB565(0xCF, 0xCF, 0x6F),
	st7789.RGB565(0xDF, 0xDF, 0x9F),
	st7789.RGB565(0xEF, 0xEF, 0xC7),
	st7789.RGB565(0xFF, 0xFF, 0xFF),
}

// wirePalette holds the palette pre-split into the asynchronous path's
// wire-order byte pairs, so the render loop never does per-pixel packing.
var wirePalette [PaletteSize][2]byte

func init() {
	for i, c := range palette {
		wirePalette[i] = [2]byte{byte(c >> 8), byte(c)}
	}
}
