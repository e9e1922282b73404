package printer

import (
	"bytes"
	"fmt"
	"strings"
)

// ESC/POS command constants
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

// Text alignment
const (
	AlignLeft   = 0
	AlignCenter = 1
)

// Font size
const (
	FontNormal = 0x00
	FontTall   = 0x01 // Double height only
)

// Document builds an ESC/POS byte stream for thermal printers.
// All text passed in is folded to printable ASCII before it is written.
type Document struct {
	buf   bytes.Buffer
	width int // print width in characters (32 for 58mm, 48 for 80mm)
}

// NewDocument creates a new ESC/POS document with the given character width.
// Common widths: 32 for 58mm paper, 48 for 80mm paper.
func NewDocument(charWidth int) *Document {
	if charWidth <= 0 {
		charWidth = 32
	}
	d := &Document{width: charWidth}
	d.Init()
	return d
}

// Init sends the ESC @ (initialize printer) command.
func (d *Document) Init() *Document {
	d.buf.Write([]byte{ESC, '@'})
	return d
}

// LineFeed sends a line feed.
func (d *Document) LineFeed() *Document {
	d.buf.WriteByte(LF)
	return d
}

// FeedLines sends n line feeds.
func (d *Document) FeedLines(n int) *Document {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(LF)
	}
	return d
}

// SetAlign sets text alignment: AlignLeft or AlignCenter.
func (d *Document) SetAlign(align int) *Document {
	d.buf.Write([]byte{ESC, 'a', byte(align)})
	return d
}

// SetBold enables or disables bold text.
func (d *Document) SetBold(on bool) *Document {
	b := byte(0)
	if on {
		b = 1
	}
	d.buf.Write([]byte{ESC, 'E', b})
	return d
}

// SetFontSize sets the character size. Use FontNormal or FontTall.
func (d *Document) SetFontSize(size byte) *Document {
	d.buf.Write([]byte{GS, '!', size})
	return d
}

// Text writes a line of text followed by a line feed.
func (d *Document) Text(s string) *Document {
	d.buf.WriteString(ASCIIFold(s))
	d.buf.WriteByte(LF)
	return d
}

// TextF writes a formatted line of text followed by a line feed.
func (d *Document) TextF(format string, args ...interface{}) *Document {
	return d.Text(fmt.Sprintf(format, args...))
}

// Separator prints a full-width separator line (e.g. "--------------------------------").
func (d *Document) Separator(char byte) *Document {
	d.buf.WriteString(strings.Repeat(string(char), d.width))
	d.buf.WriteByte(LF)
	return d
}

// KeyValue prints a left-aligned key and right-aligned value on the same line.
// Example: "Order No:          20261018-0004"
func (d *Document) KeyValue(key, value string) *Document {
	d.pair(ASCIIFold(key), ASCIIFold(value))
	return d
}

// ItemLine prints a receipt item line: "qty x name", then right-aligned total.
// The name is truncated so the total always fits on the same line.
// Example: "2 x Thali               Rs.300.00"
func (d *Document) ItemLine(qty int, name, total string) *Document {
	total = ASCIIFold(total)
	prefix := fmt.Sprintf("%d x %s", qty, ASCIIFold(name))
	if room := d.width - len(total) - 1; room > 0 && len(prefix) > room {
		prefix = prefix[:room]
	}
	d.pair(prefix, total)
	return d
}

func (d *Document) pair(left, right string) {
	spaces := d.width - len(left) - len(right)
	if spaces < 1 {
		spaces = 1
	}
	d.buf.WriteString(left)
	d.buf.WriteString(strings.Repeat(" ", spaces))
	d.buf.WriteString(right)
	d.buf.WriteByte(LF)
}

// MaxQRPayload is the largest payload a model 2 symbol can hold.
const MaxQRPayload = 7089

// QRCode prints a model 2 QR symbol using the printer's native GS ( k encoder.
// moduleSize is clamped to 1..16. Empty payloads and payloads longer than
// MaxQRPayload bytes print nothing.
func (d *Document) QRCode(data string, moduleSize byte) *Document {
	payload := []byte(ASCIIFold(data))
	if len(payload) == 0 || len(payload) > MaxQRPayload {
		return d
	}
	if moduleSize < 1 {
		moduleSize = 1
	}
	if moduleSize > 16 {
		moduleSize = 16
	}

	// Select model 2
	d.buf.Write([]byte{GS, '(', 'k', 4, 0, 49, 65, 50, 0})
	// Module size
	d.buf.Write([]byte{GS, '(', 'k', 3, 0, 49, 67, moduleSize})
	// Error correction level M
	d.buf.Write([]byte{GS, '(', 'k', 3, 0, 49, 69, 49})
	// Store data
	n := len(payload) + 3
	d.buf.Write([]byte{GS, '(', 'k', byte(n % 256), byte(n / 256), 49, 80, 48})
	d.buf.Write(payload)
	// Print symbol
	d.buf.Write([]byte{GS, '(', 'k', 3, 0, 49, 81, 48})
	d.buf.WriteByte(LF)
	return d
}

// Cut sends the paper cut command (full cut).
func (d *Document) Cut() *Document {
	d.buf.Write(CutCommand)
	return d
}

// Bytes returns the accumulated ESC/POS byte stream.
func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}

// CutCommand is the full paper cut sequence written by Cut.
var CutCommand = []byte{GS, 'V', 0x00}

// InitCommand is the printer reset sequence. It is harmless to send on its
// own, which makes it the no-op payload used by connection tests.
var InitCommand = []byte{ESC, '@'}
