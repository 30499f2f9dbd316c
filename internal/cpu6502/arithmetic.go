package cpu6502

// adc implements ADC in both binary and decimal (BCD) mode. The decimal
// path follows the documented NMOS 6502 algorithm (6502.org "Decimal
// Mode" reference): the nibble-wise +6 correction computes the stored
// accumulator value, while N/V/Z are derived from the binary sum the
// silicon computes in parallel before decimal correction is applied.
func (c *CPU) adc(v uint8) {
	carryIn := uint16(0)
	if c.Flags&FlagC != 0 {
		carryIn = 1
	}

	binSum := uint16(c.A) + uint16(v) + carryIn
	zFlag := uint8(binSum) == 0
	nFlag := binSum&0x80 != 0
	vFlag := (^(uint16(c.A) ^ uint16(v)) & (uint16(c.A) ^ binSum) & 0x80) != 0

	if c.Flags&FlagD != 0 {
		al := (c.A & 0x0F) + (v & 0x0F) + uint8(carryIn)
		if al >= 0x0A {
			al = ((al + 0x06) & 0x0F) + 0x10
		}
		sum := uint16(c.A&0xF0) + uint16(v&0xF0) + uint16(al)
		if sum >= 0xA0 {
			sum += 0x60
		}
		c.A = uint8(sum)
		c.Flags = setBit(c.Flags, FlagC, sum >= 0x100)
		c.Flags = setBit(c.Flags, FlagZ, zFlag)
		c.Flags = setBit(c.Flags, FlagN, nFlag)
		c.Flags = setBit(c.Flags, FlagV, vFlag)
		return
	}

	c.A = uint8(binSum)
	c.Flags = setBit(c.Flags, FlagC, binSum > 0xFF)
	c.Flags = setBit(c.Flags, FlagZ, zFlag)
	c.Flags = setBit(c.Flags, FlagN, nFlag)
	c.Flags = setBit(c.Flags, FlagV, vFlag)
}

// sbc implements SBC in both binary and decimal mode. Binary N/V/Z/C and
// the decimal-mode nibble correction both follow the same 6502.org
// reference used by adc; SBC's carry flag means "no borrow occurred".
func (c *CPU) sbc(v uint8) {
	borrowIn := uint16(1)
	if c.Flags&FlagC != 0 {
		borrowIn = 0
	}

	binDiff := int32(c.A) - int32(v) - int32(borrowIn)
	result := uint8(binDiff)
	carryOut := binDiff >= 0
	zFlag := result == 0
	nFlag := result&0x80 != 0
	vFlag := ((uint16(c.A) ^ uint16(v)) & (uint16(c.A) ^ uint16(result)) & 0x80) != 0

	if c.Flags&FlagD != 0 {
		al := int32(c.A&0x0F) - int32(v&0x0F) - int32(borrowIn)
		if al < 0 {
			al = ((al - 0x06) & 0x0F) - 0x10
		}
		a := int32(c.A&0xF0) - int32(v&0xF0) + al
		if a < 0 {
			a -= 0x60
		}
		c.A = uint8(a)
	} else {
		c.A = result
	}

	c.Flags = setBit(c.Flags, FlagC, carryOut)
	c.Flags = setBit(c.Flags, FlagZ, zFlag)
	c.Flags = setBit(c.Flags, FlagN, nFlag)
	c.Flags = setBit(c.Flags, FlagV, vFlag)
}
