package concentration

// Board is the on-screen geometry of the grid, in pixels.
type Board struct {
	size                int
	width, height       int
	boxWidth, boxHeight int
}

func NewBoard() Board {
	const width = 400
	return Board{
		size:      Size,
		width:     width,
		height:    width,
		boxWidth:  width / Size,
		boxHeight: width / Size,
	}
}

func (b Board) Size() int      { return b.size }
func (b Board) Width() int     { return b.width }
func (b Board) Height() int    { return b.height }
func (b Board) BoxWidth() int  { return b.boxWidth }
func (b Board) BoxHeight() int { return b.boxHeight }

// CellAt returns the cell under the pixel (px, py).
func (b Board) CellAt(px, py int) (x, y int, ok bool) {
	if px < 0 || py < 0 || px >= b.width || py >= b.height {
		return 0, 0, false
	}
	return px / b.boxWidth, py / b.boxHeight, true
}

// BoxCenter returns the pixel centre of the cell at (x, y).
func (b Board) BoxCenter(x, y int) (cx, cy int) {
	return b.boxWidth/2 + x*b.boxWidth, b.boxHeight/2 + y*b.boxHeight
}
