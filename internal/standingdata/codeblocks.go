// Package standingdata supplies the reference-data collaborators consumed by
// the stores: ICAO24 code-block lookup and callsign alternates.
package standingdata

import (
	"sort"
	"strconv"
	"strings"
)

// CodeBlock describes the allocation range an ICAO24 address falls into.
type CodeBlock struct {
	Country    string
	IsMilitary bool
}

// CodeBlocks finds the code block covering one ICAO24 hex address. A nil
// result means the address is outside every known range.
type CodeBlocks interface {
	FindCodeBlock(icaoHex string) *CodeBlock
}

// block is one allocation range: the leading BitCount bits of Icao identify
// the block.
type block struct {
	icao       uint32
	bitCount   int
	country    string
	isMilitary bool
}

// CodeBlockTable is an in-memory CodeBlocks implementation over bitmask
// prefix ranges, most specific range first.
type CodeBlockTable struct {
	blocks []block
	sorted bool
}

// Add registers an allocation range. icao is the block's base address,
// bitCount how many leading bits are significant.
func (t *CodeBlockTable) Add(icao uint32, bitCount int, country string, isMilitary bool) {
	t.blocks = append(t.blocks, block{icao: icao, bitCount: bitCount, country: country, isMilitary: isMilitary})
	t.sorted = false
}

// FindCodeBlock returns the most specific block covering icaoHex, nil when
// the address is malformed or unallocated.
func (t *CodeBlockTable) FindCodeBlock(icaoHex string) *CodeBlock {
	icaoHex = strings.TrimSpace(icaoHex)
	if icaoHex == "" {
		return nil
	}
	n, err := strconv.ParseUint(icaoHex, 16, 32)
	if err != nil || n > 0xFFFFFF {
		return nil
	}
	icao := uint32(n)

	if !t.sorted {
		sort.SliceStable(t.blocks, func(i, j int) bool {
			return t.blocks[i].bitCount > t.blocks[j].bitCount
		})
		t.sorted = true
	}

	for i := range t.blocks {
		b := &t.blocks[i]
		shift := 24 - b.bitCount
		if shift < 0 || shift > 24 {
			continue
		}
		if icao>>shift == b.icao>>shift {
			return &CodeBlock{Country: b.country, IsMilitary: b.isMilitary}
		}
	}
	return nil
}
