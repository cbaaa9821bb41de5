package tui

// Minimum terminal size; below it View renders a notice instead of panels.
const (
	MinWidth  = 60
	MinHeight = 16
)

// cardHeight is the rendered height of one indicator card: one content row
// plus a border above and below.
const cardHeight = 3

// Rect represents a rectangular region of the terminal.
type Rect struct {
	X, Y, Width, Height int
}

// Layout holds the computed panel geometry for a given terminal size.
type Layout struct {
	Header, Footer Rect
	Cards          Rect
	Log            Rect
	TooSmall       bool // true when terminal is below MinWidth×MinHeight
}

// VisibleCards returns how many cards fit in the cards column.
func (l Layout) VisibleCards() int {
	return l.Cards.Height / cardHeight
}

// Calculate computes the panel layout for a terminal of the given dimensions
// showing cards indicator cards.
//
//   - Header: full width, 1 row at top
//   - Footer: full width, 1 row at bottom
//   - Cards: full width, one 3-row card per indicator, capped at half the body
//     and at least one card tall
//   - Log: the remaining body rows
func Calculate(width, height, cards int) Layout {
	if width < MinWidth || height < MinHeight {
		return Layout{TooSmall: true}
	}

	bodyH := height - 2 // subtract header + footer rows

	cardsH := cards * cardHeight
	if maxH := (bodyH / 2) / cardHeight * cardHeight; cardsH > maxH {
		cardsH = maxH
	}
	if cardsH < cardHeight {
		cardsH = cardHeight
	}
	logH := bodyH - cardsH

	return Layout{
		Header: Rect{X: 0, Y: 0, Width: width, Height: 1},
		Footer: Rect{X: 0, Y: height - 1, Width: width, Height: 1},
		Cards:  Rect{X: 0, Y: 1, Width: width, Height: cardsH},
		Log:    Rect{X: 0, Y: 1 + cardsH, Width: width, Height: logH},
	}
}

// innerDims returns the content dimensions for a panel rect accounting for
// the 1-character border on each side (2 total per dimension).
func innerDims(r Rect) (w, h int) {
	w = r.Width - 2
	if w < 1 {
		w = 1
	}
	h = r.Height - 2
	if h < 1 {
		h = 1
	}
	return
}
