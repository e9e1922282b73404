package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument_LayoutHelpers(t *testing.T) {
	d := NewDocument(32)
	d.KeyValue("Order No:", "20261018-0001")
	d.Separator('-')

	out := d.Bytes()
	assert.True(t, bytes.HasPrefix(out, InitCommand))
	lines := bytes.Split(bytes.TrimPrefix(out, InitCommand), []byte{LF})
	assert.Len(t, lines[0], 32)
	assert.True(t, bytes.HasSuffix(lines[0], []byte("20261018-0001")))
	assert.Equal(t, bytes.Repeat([]byte("-"), 32), lines[1])
}

func TestDocument_ItemLineTruncatesName(t *testing.T) {
	d := NewDocument(32)
	d.ItemLine(12, "Extraordinarily Long Vegetable Biryani", "Rs.1800.00")

	line := bytes.TrimSuffix(bytes.TrimPrefix(d.Bytes(), InitCommand), []byte{LF})
	assert.Len(t, line, 32)
	assert.True(t, bytes.HasPrefix(line, []byte("12 x Extraordinarily")))
	assert.True(t, bytes.HasSuffix(line, []byte(" Rs.1800.00")))
}

func TestDocument_FoldsNonASCII(t *testing.T) {
	d := NewDocument(48)
	d.Text("Crème brûlée ₹")
	assert.Contains(t, string(d.Bytes()), "Creme brulee ?\n")
}

func TestDocument_QRCode(t *testing.T) {
	d := NewDocument(32)
	d.QRCode("https://example.org/r/1", 0)

	out := d.Bytes()
	assert.Contains(t, string(out), "https://example.org/r/1")
	// size clamped to 1
	assert.True(t, bytes.Contains(out, []byte{GS, '(', 'k', 3, 0, 49, 67, 1}))
	n := len("https://example.org/r/1") + 3
	assert.True(t, bytes.Contains(out, []byte{GS, '(', 'k', byte(n), 0, 49, 80, 48}))
}

func TestDocument_QRCodeLengthBytes(t *testing.T) {
	d := NewDocument(32)
	d.QRCode(strings.Repeat("7", MaxQRPayload), 4)

	n := MaxQRPayload + 3
	assert.True(t, bytes.Contains(d.Bytes(), []byte{GS, '(', 'k', byte(n % 256), byte(n / 256), 49, 80, 48}))
}

func TestDocument_QRCodeSkipsOversizedPayload(t *testing.T) {
	for _, data := range []string{"", strings.Repeat("x", MaxQRPayload+1), strings.Repeat("x", 70000)} {
		d := NewDocument(32)
		d.QRCode(data, 4)
		assert.Equal(t, InitCommand, d.Bytes(), "payload of %d bytes", len(data))
	}
}

func TestDocument_Cut(t *testing.T) {
	d := NewDocument(0)
	assert.Equal(t, 32, d.width)
	d.Cut()
	assert.True(t, bytes.HasSuffix(d.Bytes(), CutCommand))
}

func TestASCIIFold(t *testing.T) {
	tests := map[string]string{
		"Thali":         "Thali",
		"Paneer Tikká":  "Paneer Tikka",
		"Chai\tSpecial": "Chai Special",
		"दाल":           "???",
		"₹250":          "?250",
	}
	for in, want := range tests {
		assert.Equal(t, want, ASCIIFold(in), in)
	}
}
