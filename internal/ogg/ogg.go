// Package ogg reads and writes Ogg page streams at the packet level,
// and understands the Vorbis comment header carried inside them. It is
// not a demuxer: payloads other than the comment header are opaque.
package ogg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrBadFraming reports malformed page framing in the input
	// stream. The container cannot be processed.
	ErrBadFraming = errors.New("ogg: bad page framing")

	// ErrWrite reports a failure while re-emitting the page stream.
	ErrWrite = errors.New("ogg: packet write failed")

	// ErrNoCommentHeader reports a stream in which no packet carries
	// the Vorbis comment signature, leaving nothing to replace.
	ErrNoCommentHeader = errors.New("ogg: no comment header packet")
)

// Packet is one logical packet recovered from a page stream. Serial,
// Granule, EndsPage and EndsStream are framing facts about the original
// encoding; they are carried through a rewrite untouched.
type Packet struct {
	Data       []byte
	Serial     uint32
	Granule    int64
	EndsPage   bool
	EndsStream bool
}

const (
	capturePattern = "OggS"
	headerSize     = 27

	flagContinued = 0x01
	flagBOS       = 0x02
	flagEOS       = 0x04

	// maxSegments is the lacing table limit per page; packets with
	// more lacing values than this span pages.
	maxSegments = 255

	// noGranule marks a page on which no packet completes.
	noGranule = int64(-1)
)

// crcTable implements the Ogg page checksum: CRC-32 with polynomial
// 0x04c11db7, no bit reversal, zero initial value and zero final XOR.
var crcTable = func() [256]uint32 {
	var t [256]uint32
	for i := range t {
		r := uint32(i) << 24
		for k := 0; k < 8; k++ {
			if r&0x80000000 != 0 {
				r = (r << 1) ^ 0x04c11db7
			} else {
				r <<= 1
			}
		}
		t[i] = r
	}
	return t
}()

func crcUpdate(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = (crc << 8) ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}

type pageState struct {
	headerType byte
	granule    int64
	serial     uint32
	lacing     []byte
	payload    []byte
	segIdx     int
	payloadPos int
}

// PacketReader assembles logical packets from a buffered page stream.
type PacketReader struct {
	data    []byte
	pos     int
	page    *pageState
	partial map[uint32][]byte
}

func NewPacketReader(data []byte) *PacketReader {
	return &PacketReader{
		data:    data,
		partial: make(map[uint32][]byte),
	}
}

// readPage parses and checksums the next physical page.
func (r *PacketReader) readPage() (*pageState, error) {
	if r.pos == len(r.data) {
		return nil, io.EOF
	}
	if len(r.data)-r.pos < headerSize {
		return nil, fmt.Errorf("%w: truncated page header at offset %d", ErrBadFraming, r.pos)
	}
	hdr := r.data[r.pos : r.pos+headerSize]
	if string(hdr[0:4]) != capturePattern {
		return nil, fmt.Errorf("%w: missing capture pattern at offset %d", ErrBadFraming, r.pos)
	}
	if hdr[4] != 0 {
		return nil, fmt.Errorf("%w: unsupported stream structure version %d", ErrBadFraming, hdr[4])
	}

	nsegs := int(hdr[26])
	if len(r.data)-r.pos < headerSize+nsegs {
		return nil, fmt.Errorf("%w: truncated segment table at offset %d", ErrBadFraming, r.pos)
	}
	lacing := r.data[r.pos+headerSize : r.pos+headerSize+nsegs]

	payloadLen := 0
	for _, l := range lacing {
		payloadLen += int(l)
	}
	total := headerSize + nsegs + payloadLen
	if len(r.data)-r.pos < total {
		return nil, fmt.Errorf("%w: truncated page payload at offset %d", ErrBadFraming, r.pos)
	}

	pageBytes := r.data[r.pos : r.pos+total]
	wantCRC := binary.LittleEndian.Uint32(hdr[22:26])

	crc := crcUpdate(0, pageBytes[:22])
	crc = crcUpdate(crc, []byte{0, 0, 0, 0})
	crc = crcUpdate(crc, pageBytes[26:])
	if crc != wantCRC {
		return nil, fmt.Errorf("%w: page checksum mismatch at offset %d", ErrBadFraming, r.pos)
	}

	page := &pageState{
		headerType: hdr[5],
		granule:    int64(binary.LittleEndian.Uint64(hdr[6:14])),
		serial:     binary.LittleEndian.Uint32(hdr[14:18]),
		lacing:     lacing,
		payload:    pageBytes[headerSize+nsegs:],
	}
	r.pos += total

	if page.headerType&flagContinued != 0 {
		if _, ok := r.partial[page.serial]; !ok {
			return nil, fmt.Errorf("%w: continued page without pending packet for serial %d", ErrBadFraming, page.serial)
		}
	} else if len(r.partial[page.serial]) > 0 {
		return nil, fmt.Errorf("%w: pending packet dropped at page boundary for serial %d", ErrBadFraming, page.serial)
	}

	return page, nil
}

// Next returns the next logical packet, or io.EOF at a clean end of
// stream. Any framing defect wraps ErrBadFraming.
func (r *PacketReader) Next() (*Packet, error) {
	for {
		if r.page == nil {
			page, err := r.readPage()
			if err == io.EOF {
				for serial, pending := range r.partial {
					if len(pending) > 0 {
						return nil, fmt.Errorf("%w: stream ends inside packet for serial %d", ErrBadFraming, serial)
					}
				}
				return nil, io.EOF
			}
			if err != nil {
				return nil, err
			}
			r.page = page
		}

		page := r.page
		for page.segIdx < len(page.lacing) {
			seg := int(page.lacing[page.segIdx])
			r.partial[page.serial] = append(r.partial[page.serial], page.payload[page.payloadPos:page.payloadPos+seg]...)
			page.payloadPos += seg
			page.segIdx++

			if seg < 255 {
				data := r.partial[page.serial]
				r.partial[page.serial] = nil

				last := page.segIdx == len(page.lacing)
				pkt := &Packet{
					Data:       data,
					Serial:     page.serial,
					Granule:    page.granule,
					EndsPage:   last,
					EndsStream: last && page.headerType&flagEOS != 0,
				}
				if page.segIdx == len(page.lacing) {
					r.page = nil
				}
				return pkt, nil
			}
		}
		// page exhausted with a packet still open; it continues on
		// the next page for this serial
		r.page = nil
	}
}

// ReadAll drains the reader into a packet slice.
func (r *PacketReader) ReadAll() ([]Packet, error) {
	var packets []Packet
	for {
		p, err := r.Next()
		if err == io.EOF {
			return packets, nil
		}
		if err != nil {
			return nil, err
		}
		packets = append(packets, *p)
	}
}

// pageBuilder accumulates packets for one logical stream until a page
// boundary is due.
type pageBuilder struct {
	serial      uint32
	sequence    uint32
	continued   bool
	lacing      []byte
	payload     []byte
	lastGranule int64
	anyComplete bool
}

// PacketWriter re-emits packets as a page stream. Page boundaries
// follow each packet's EndsPage/EndsStream flags, with oversized
// packets spanning pages automatically; sequence numbers and checksums
// are freshly computed.
type PacketWriter struct {
	w        io.Writer
	builders map[uint32]*pageBuilder
}

func NewPacketWriter(w io.Writer) *PacketWriter {
	return &PacketWriter{
		w:        w,
		builders: make(map[uint32]*pageBuilder),
	}
}

func (pw *PacketWriter) builder(serial uint32) *pageBuilder {
	b, ok := pw.builders[serial]
	if !ok {
		b = &pageBuilder{serial: serial, lastGranule: noGranule}
		pw.builders[serial] = b
	}
	return b
}

// Write appends one packet to its stream's pending page, flushing
// whole pages as boundaries are reached.
func (pw *PacketWriter) Write(p Packet) error {
	b := pw.builder(p.Serial)

	// a page whose lacing table filled up exactly at a packet boundary
	// closes here, without a continuation flag
	if len(b.lacing) == maxSegments {
		granule := noGranule
		if b.anyComplete {
			granule = b.lastGranule
		}
		if err := pw.flush(b, granule, false, false); err != nil {
			return err
		}
	}

	data := p.Data
	for {
		// room left in the lacing table of the pending page
		room := maxSegments - len(b.lacing)
		need := len(data)/255 + 1

		if need <= room {
			for len(data) >= 255 {
				b.lacing = append(b.lacing, 255)
				b.payload = append(b.payload, data[:255]...)
				data = data[255:]
			}
			b.lacing = append(b.lacing, byte(len(data)))
			b.payload = append(b.payload, data...)
			b.anyComplete = true
			b.lastGranule = p.Granule
			break
		}

		// fill the page and continue the packet on the next one
		for i := 0; i < room; i++ {
			b.lacing = append(b.lacing, 255)
			b.payload = append(b.payload, data[:255]...)
			data = data[255:]
		}
		granule := noGranule
		if b.anyComplete {
			granule = b.lastGranule
		}
		if err := pw.flush(b, granule, false, true); err != nil {
			return err
		}
	}

	if p.EndsStream || p.EndsPage {
		return pw.flush(b, p.Granule, p.EndsStream, false)
	}
	return nil
}

// flush emits the pending page for a builder and resets it.
func (pw *PacketWriter) flush(b *pageBuilder, granule int64, eos, continues bool) error {
	if len(b.lacing) == 0 && !eos {
		return nil
	}

	var headerType byte
	if b.continued {
		headerType |= flagContinued
	}
	if b.sequence == 0 {
		headerType |= flagBOS
	}
	if eos {
		headerType |= flagEOS
	}

	header := make([]byte, headerSize, headerSize+len(b.lacing))
	copy(header, capturePattern)
	header[5] = headerType
	binary.LittleEndian.PutUint64(header[6:14], uint64(granule))
	binary.LittleEndian.PutUint32(header[14:18], b.serial)
	binary.LittleEndian.PutUint32(header[18:22], b.sequence)
	header[26] = byte(len(b.lacing))
	header = append(header, b.lacing...)

	crc := crcUpdate(0, header)
	crc = crcUpdate(crc, b.payload)
	binary.LittleEndian.PutUint32(header[22:26], crc)

	if _, err := pw.w.Write(header); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if _, err := pw.w.Write(b.payload); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	b.sequence++
	b.continued = continues
	b.lacing = nil
	b.payload = nil
	b.anyComplete = false
	b.lastGranule = noGranule
	return nil
}

// Close flushes any pages still pending. Streams whose final packet
// carried no page boundary flag end on a plain page.
func (pw *PacketWriter) Close() error {
	for _, b := range pw.builders {
		granule := noGranule
		if b.anyComplete {
			granule = b.lastGranule
		}
		if len(b.lacing) > 0 {
			if err := pw.flush(b, granule, false, false); err != nil {
				return err
			}
		}
	}
	return nil
}
