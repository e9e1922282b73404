package enum

// PrintWidth is the paper width of a receipt printer.
type PrintWidth string

const (
	PrintWidth58mm PrintWidth = "58mm"
	PrintWidth80mm PrintWidth = "80mm"
)

// WidthProfile is the layout implied by a paper width.
type WidthProfile struct {
	Columns int // characters per line in the printer's default font
	CSSPx   int // page width for the print dialog path
	MM      int
}

var widthProfiles = map[PrintWidth]WidthProfile{
	PrintWidth58mm: {Columns: 32, CSSPx: 220, MM: 58},
	PrintWidth80mm: {Columns: 48, CSSPx: 302, MM: 80},
}

// Profile returns the layout for w. The second result is false for an
// unknown width.
func (w PrintWidth) Profile() (WidthProfile, bool) {
	p, ok := widthProfiles[w]
	return p, ok
}

// Valid reports whether w is a known width.
func (w PrintWidth) Valid() bool {
	_, ok := widthProfiles[w]
	return ok
}
