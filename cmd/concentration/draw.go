package main

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/vancomm/concentration/internal/game"
)

var (
	ColBg       = color.RGBA{0x00, 0x00, 0x00, 0xff}
	ColGrid     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	ColTitle    = color.RGBA{0xff, 0xff, 0x00, 0xff}
	ColTimer    = color.RGBA{0x00, 0x00, 0xff, 0xff}
	ColStatus   = color.RGBA{0xff, 0x00, 0x00, 0xff}
	ColText     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	ColTitleTxt = color.RGBA{0x00, 0x00, 0x00, 0xff}
	ColWin      = color.RGBA{0x00, 0xff, 0x00, 0xff}
)

func newFace(size float64) (text.Face, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("unable to load font: %w", err)
	}
	return &text.GoTextFace{Source: src, Size: size}, nil
}

func (a *application) drawText(screen *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, a.face, op)
}

// Draw: Rendering (VSync)
func (a *application) Draw(screen *ebiten.Image) {
	screen.Fill(ColBg)

	a.drawCells(screen)
	a.drawBoard(screen)
	a.drawTitle(screen)
	a.drawTimer(screen)
	a.drawStatus(screen)
	if a.state.Won {
		a.drawGameMessage(screen)
	}
}

func (a *application) drawBoard(screen *ebiten.Image) {
	var (
		size = a.board.Size()
		bw   = float32(a.board.BoxWidth())
		bh   = float32(a.board.BoxHeight())
	)
	for i := range size + 1 {
		x := 1 + float32(i)*bw
		vector.StrokeLine(screen, x, 1, x, bh*float32(size), 1, ColGrid, false)
	}
	for i := range size + 1 {
		y := 1 + float32(i)*bh
		vector.StrokeLine(screen, 1, y, bw*float32(size), y, 1, ColGrid, false)
	}
}

func (a *application) drawCells(screen *ebiten.Image) {
	view := a.state.View()
	for y, row := range view.Cells {
		for x, cell := range row {
			cx, cy := a.board.BoxCenter(x, y)
			switch cell.State {
			case game.FaceUp:
				drawShape(screen, cell.Shape, float32(cx), float32(cy))
			case game.Matched:
				a.crossOut(screen, float32(cx), float32(cy))
			}
		}
	}
}

func (a *application) crossOut(screen *ebiten.Image, cx, cy float32) {
	hw := float32(a.board.BoxWidth()) / 2
	hh := float32(a.board.BoxHeight()) / 2
	vector.StrokeLine(screen, cx-hw, cy-hh, cx+hw, cy+hh, 1, ColGrid, false)
	vector.StrokeLine(screen, cx+hw, cy-hh, cx-hw, cy+hh, 1, ColGrid, false)
}

func (a *application) drawTitle(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 401, 401, ScreenHeight-401, ColTitle, false)
	a.drawText(screen, "CONCENTRATION", 100, 430, ColTitleTxt)
}

func (a *application) drawTimer(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 401, 0, ScreenWidth-401, 401, ColTimer, false)
	a.drawText(screen, fmt.Sprintf("Time: %d", int(a.state.Elapsed.Seconds())), 440, 60, ColText)
	if a.best != nil {
		a.drawText(screen, fmt.Sprintf("Best: %d", int(a.best.Elapsed.Seconds())), 440, 90, ColText)
	}
}

func (a *application) drawStatus(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 401, 401, ScreenWidth-401, ScreenHeight-401, ColStatus, false)
	a.drawText(screen, fmt.Sprintf("Score: %d", a.state.Matched), 440, 410, ColText)
	a.drawText(screen, fmt.Sprintf("Remaining: %d", a.state.Remaining()), 440, 442, ColText)
}

func (a *application) drawGameMessage(screen *ebiten.Image) {
	a.drawText(screen, "You win!", 460, 150, ColWin)
	a.drawText(screen, "Play again? (y/n)", 420, 180, ColWin)
}
