/*
	Package mbr provides parsing of the Master Boot Record of a disk image and the chain of Extended Boot
	Records inside an extended partition, yielding the ordered list of partitions (primary 1-4, logical 5+).
*/
package mbr

import (
	"errors"
	"fmt"

	"github.com/jdw/goqnx6/binutil"
	"github.com/jdw/goqnx6/disk"
)

const (
	entryTableOffset = 446
	entrySize        = 16

	// maxLogical caps EBR chain walking so a corrupt chain that loops back on itself cannot hang the scan.
	maxLogical = 60
)

var (
	// ErrInvalidMbrSignature is returned when sector 0 does not end in 0x55 0xAA.
	ErrInvalidMbrSignature = errors.New("invalid MBR signature")
	// ErrInvalidEbrSignature marks a broken EBR; the chain walk stops there rather than failing the parse.
	ErrInvalidEbrSignature = errors.New("invalid EBR signature")
)

// Partition is one entry of the partition table. Primary partitions carry numbers 1-4 matching their slot in
// the MBR; logical partitions found through the EBR chain are numbered from 5 in chain order. StartLBA is
// always absolute, also for logical partitions.
type Partition struct {
	Number      int
	Status      byte
	CHSStart    [3]byte
	CHSEnd      [3]byte
	Type        byte
	StartLBA    uint32
	SizeSectors uint32
}

// IsExtended reports whether this entry describes an extended partition (the container of logical partitions).
func (p *Partition) IsExtended() bool {
	return p.Type == 0x05 || p.Type == 0x0F
}

// IsQNX6 reports whether this entry's type byte is one of the known QNX filesystem types.
func (p *Partition) IsQNX6() bool {
	switch p.Type {
	case 0x4D, 0x4E, 0x4F, 0xB1, 0xB2, 0xB3:
		return true
	}
	return false
}

// SizeBytes returns the partition size in bytes.
func (p *Partition) SizeBytes() int64 {
	return int64(p.SizeSectors) * disk.SectorSize
}

// StartOffset returns the partition's first byte offset within the image.
func (p *Partition) StartOffset() int64 {
	return int64(p.StartLBA) * disk.SectorSize
}

// EndLBA returns the first sector past the partition.
func (p *Partition) EndLBA() uint64 {
	return uint64(p.StartLBA) + uint64(p.SizeSectors)
}

// Parse reads the partition table of the image: the 4 primary entries of sector 0 and, for every extended
// primary, the logical partitions chained through its Extended Boot Records. A missing MBR signature fails
// with ErrInvalidMbrSignature; a broken EBR chain only truncates that chain, returning what was found so far.
func Parse(dev *disk.Device) ([]Partition, error) {
	sector, err := dev.ReadSector(0)
	if err != nil {
		return nil, fmt.Errorf("unable to read MBR sector: %w", err)
	}
	if !hasBootSignature(sector) {
		return nil, ErrInvalidMbrSignature
	}

	partitions := make([]Partition, 0, 4)
	for i := 0; i < 4; i++ {
		p := parseEntry(sector[entryTableOffset+i*entrySize:entryTableOffset+(i+1)*entrySize], i+1)
		if p.Type == 0 {
			continue
		}
		partitions = append(partitions, p)
	}

	nextNumber := 5
	for _, p := range partitions {
		if !p.IsExtended() {
			continue
		}
		logical := walkEbrChain(dev, p.StartLBA, nextNumber)
		nextNumber += len(logical)
		partitions = append(partitions, logical...)
	}

	return partitions, nil
}

// walkEbrChain follows the singly-linked EBR chain starting at the extended partition's first sector. The
// first of the two meaningful entries in each EBR is the logical partition (its start relative to that EBR's
// own sector); the second points at the next EBR, relative to the extended partition's start, 0 terminating
// the chain. Bad signatures stop the walk, and at most maxLogical partitions are followed.
func walkEbrChain(dev *disk.Device, extendedStart uint32, firstNumber int) []Partition {
	logical := make([]Partition, 0)
	ebrLBA := extendedStart

	for len(logical) < maxLogical {
		sector, err := dev.ReadSector(uint64(ebrLBA))
		if err != nil {
			break
		}
		if !hasBootSignature(sector) {
			break
		}

		entry := parseEntry(sector[entryTableOffset:entryTableOffset+entrySize], firstNumber+len(logical))
		if entry.Type != 0 && entry.SizeSectors != 0 {
			entry.StartLBA += ebrLBA
			logical = append(logical, entry)
		}

		next := parseEntry(sector[entryTableOffset+entrySize:entryTableOffset+2*entrySize], 0)
		if next.StartLBA == 0 {
			break
		}
		ebrLBA = extendedStart + next.StartLBA
	}

	return logical
}

func parseEntry(b []byte, number int) Partition {
	r := binutil.NewReader(b)
	p := Partition{
		Number:      number,
		Status:      r.Byte(0),
		Type:        r.Byte(4),
		StartLBA:    r.Uint32(8),
		SizeSectors: r.Uint32(12),
	}
	copy(p.CHSStart[:], r.Read(1, 3))
	copy(p.CHSEnd[:], r.Read(5, 3))
	return p
}

func hasBootSignature(sector []byte) bool {
	return len(sector) >= disk.SectorSize && sector[510] == 0x55 && sector[511] == 0xAA
}
