package vic

// Per-line rendering: graphics-data fetches against the VIC's own view of
// the bus, the character/bitmap mode drawers, and the sprite engine.

func (v *VIC) getScreenChar(column, row int32) uint8 {
	addr := v.screenMem + uint16(row*gCols+column)
	return v.mem.VICReadByte(addr)
}

func (v *VIC) getCharColor(column, row int32) uint8 {
	addr := uint16(addrColorRAM) + uint16(row*gCols+column)
	return v.mem.ReadByteNoIO(addr) & 0x0F
}

func (v *VIC) getCharData(chr uint8, line int32) uint8 {
	addr := v.charMem + uint16(int32(chr)*8+line)
	return v.mem.VICReadByte(addr)
}

func (v *VIC) getBitmapData(column, row, line int32) uint8 {
	addr := v.bitmapMem + uint16((row*gCols+column)*8+line)
	return v.mem.VICReadByte(addr)
}

func (v *VIC) getSpritePtr(n int32) uint16 {
	ptrAddr := v.screenMem + uint16(spritePtrsOffset+n)
	return spriteSize * uint16(v.mem.VICReadByte(ptrAddr))
}

func (v *VIC) drawChar(x, y int32, data, color uint8) {
	for i := int32(0); i < 8; i++ {
		xoffs := x + 8 - i + int32(v.horizontalScroll())
		if xoffs > gFirstCol+gResX {
			continue
		}
		if data&(1<<uint(i)) != 0 {
			v.display.ScreenUpdatePixel(int(xoffs), int(y), color)
		}
	}
}

func (v *VIC) drawMCChar(x, y int32, data, color uint8) {
	for i := int32(0); i < 4; i++ {
		cs := (data >> uint(i*2)) & 0x3
		var c uint8
		switch cs {
		case 0:
			c = v.bgColor[0]
		case 1:
			c = v.bgColor[1]
		case 2:
			c = v.bgColor[2]
		default:
			c = color
		}
		xoffs := x + 8 - i*2 + int32(v.horizontalScroll())
		v.display.ScreenUpdatePixel(int(xoffs), int(y), c)
		v.display.ScreenUpdatePixel(int(xoffs)+1, int(y), c)
	}
}

func (v *VIC) drawRasterCharMode(rstr, y int32) {
	if rstr < gFirstLine || rstr >= gLastLine || v.isScreenOff() {
		return
	}
	v.display.ScreenDrawRect(gFirstCol, int(y), gResX, v.bgColor[0])

	for column := int32(0); column < gCols; column++ {
		if v.cr2&(1<<3) == 0 && (column == 0 || column == gCols-1) {
			continue
		}
		x := gFirstCol + column*8
		line := rstr - gFirstLine
		row := line / 8
		charRow := line % 8

		c := v.getScreenChar(column, row)
		data := v.getCharData(c, charRow)
		color := v.getCharColor(column, row)

		if v.graphicMode == MCCharMode && color&(1<<3) != 0 {
			v.drawMCChar(x, y, data, color&0x7)
		} else {
			v.drawChar(x, y, data, color)
		}
	}
}

func (v *VIC) drawBitmap(x, y int32, data, color uint8) {
	forec := (color >> 4) & 0xF
	bgc := color & 0xF
	for i := int32(0); i < 8; i++ {
		xoffs := x + 8 - i + int32(v.horizontalScroll())
		if xoffs > gFirstCol+gResX {
			continue
		}
		if data&(1<<uint(i)) != 0 {
			v.display.ScreenUpdatePixel(int(xoffs), int(y), forec)
		} else {
			v.display.ScreenUpdatePixel(int(xoffs), int(y), bgc)
		}
	}
}

func (v *VIC) drawMCBitmap(x, y int32, data, scolor, rcolor uint8) {
	for i := int32(0); i < 4; i++ {
		cs := (data >> uint(i*2)) & 0x3
		var c uint8
		switch cs {
		case 0:
			c = v.bgColor[0]
		case 1:
			c = (scolor >> 4) & 0xF
		case 2:
			c = scolor & 0xF
		default:
			c = rcolor
		}
		xoffs := x + 8 - i*2 + int32(v.horizontalScroll())
		v.display.ScreenUpdatePixel(int(xoffs), int(y), c)
		v.display.ScreenUpdatePixel(int(xoffs)+1, int(y), c)
	}
}

func (v *VIC) drawRasterBitmapMode(rstr, y int32) {
	if rstr < gFirstLine || rstr >= gLastLine || v.isScreenOff() {
		return
	}
	v.display.ScreenDrawRect(gFirstCol, int(y), gResX, v.bgColor[0])

	for column := int32(0); column < gCols; column++ {
		x := gFirstCol + column*8
		line := rstr - gFirstLine
		row := line / 8
		bitmapRow := line % 8

		data := v.getBitmapData(column, row, bitmapRow)
		scolor := v.getScreenChar(column, row)
		rcolor := v.getCharColor(column, row)

		if v.graphicMode == BitmapMode {
			v.drawBitmap(x, y, data, scolor)
		} else {
			v.drawMCBitmap(x, y, data, scolor, rcolor)
		}
	}
}

func (v *VIC) drawMCSprite(x, y int32, sprite int, row int32) {
	addr := v.getSpritePtr(int32(sprite))
	for i := int32(0); i < 3; i++ {
		data := v.mem.VICReadByte(addr + uint16(row*3+i))
		for j := int32(0); j < 4; j++ {
			cs := (data >> uint(j*2)) & 0x3
			var c uint8
			switch cs {
			case 0:
				continue
			case 1:
				c = v.spriteSharedColors[0]
			case 2:
				c = v.spriteColors[sprite]
			default:
				c = v.spriteSharedColors[1]
			}
			v.display.ScreenUpdatePixel(int(x+i*8+8-j*2), int(y), c)
			v.display.ScreenUpdatePixel(int(x+i*8+8-j*2)+1, int(y), c)
		}
	}
}

func (v *VIC) drawSprite(x, y int32, sprite int, row int32) {
	swid := int32(1)
	if v.isDoubleWidthSprite(sprite) {
		swid = 2
	}
	addr := v.getSpritePtr(int32(sprite))
	for w := int32(0); w < swid; w++ {
		for i := int32(0); i < 3; i++ {
			data := v.mem.VICReadByte(addr + uint16(row*3+i))
			for j := int32(0); j < 8; j++ {
				if data&(1<<uint(j)) == 0 {
					continue
				}
				newX := x + w*8*swid + i*8*swid + (8*swid - j*swid)
				color := v.spriteColors[sprite]

				var sideBorder, topBorder, btmBorder int32
				if v.cr2&(1<<3) == 0 {
					sideBorder = 8
				}
				if v.cr1&(1<<3) == 0 {
					topBorder = 2
					btmBorder = 4
				}
				if newX <= gFirstCol+sideBorder || y < gFirstCol+topBorder ||
					newX > gResX+gFirstCol-sideBorder || y >= gResY+gFirstCol-btmBorder {
					color = v.borderColor
				}
				v.display.ScreenUpdatePixel(int(newX), int(y), color)
			}
		}
	}
}

func (v *VIC) drawRasterSprites(rstr, y int32) {
	if v.spriteEnabled == 0 {
		return
	}
	spY := rstr - spritesFirstLine

	for n := 7; n >= 0; n-- {
		height := int32(spriteHeight)
		if v.isDoubleHeightSprite(n) {
			height *= 2
		}
		if !v.isSpriteEnabled(n) || spY < int32(v.my[n]) || spY >= int32(v.my[n])+height {
			continue
		}
		row := spY - int32(v.my[n])
		x := int32(spritesFirstCol) + v.spriteX(n)
		if v.isDoubleHeightSprite(n) {
			row /= 2
		}
		if v.isMulticolorSprite(n) {
			v.drawMCSprite(x, y, n, row)
		} else {
			v.drawSprite(x, y, n, row)
		}
	}
}
