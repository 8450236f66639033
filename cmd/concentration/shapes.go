package main

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/vancomm/concentration/internal/concentration"
)

var (
	ColOctagon   = color.RGBA{0xff, 0x00, 0x00, 0xff}
	ColTriangle  = color.RGBA{0xff, 0xff, 0x00, 0xff}
	ColDiamond   = color.RGBA{0xff, 0x00, 0xff, 0xff}
	ColRectangle = color.RGBA{0x00, 0xff, 0x00, 0xff}
	ColOval      = color.RGBA{0x00, 0xff, 0xff, 0xff}
	ColCircle    = color.RGBA{0x00, 0x00, 0xff, 0xff}
)

var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

type point struct{ x, y float32 }

// fillPolygon fills a convex polygon given by its vertices in order.
func fillPolygon(screen *ebiten.Image, pts []point, clr color.Color) {
	var path vector.Path
	path.MoveTo(pts[0].x, pts[0].y)
	for _, p := range pts[1:] {
		path.LineTo(p.x, p.y)
	}
	path.Close()

	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	r, g, b, a := clr.RGBA()
	for i := range vs {
		vs[i].SrcX = 1
		vs[i].SrcY = 1
		vs[i].ColorR = float32(r) / 0xffff
		vs[i].ColorG = float32(g) / 0xffff
		vs[i].ColorB = float32(b) / 0xffff
		vs[i].ColorA = float32(a) / 0xffff
	}
	screen.DrawTriangles(vs, is, whiteSubImage, &ebiten.DrawTrianglesOptions{
		AntiAlias: true,
	})
}

// drawShape draws shape centred on (cx, cy).
func drawShape(screen *ebiten.Image, shape concentration.Shape, cx, cy float32) {
	switch shape {
	case concentration.Octagon:
		drawOctagon(screen, cx, cy)
	case concentration.Triangle:
		drawTriangle(screen, cx, cy)
	case concentration.Diamond:
		drawDiamond(screen, cx, cy)
	case concentration.Rectangle:
		drawRectangle(screen, cx, cy)
	case concentration.Oval:
		drawOval(screen, cx, cy)
	case concentration.Circle:
		drawCircle(screen, cx, cy)
	}
}

// Octagon is an outline, the other shapes are filled.
func drawOctagon(screen *ebiten.Image, cx, cy float32) {
	vx := [8]float32{0, -14, -20, -14, 0, 14, 20, 14}
	vy := [8]float32{-20, -14, 0, 14, 20, 14, 0, -14}
	for i := range 8 {
		j := (i + 1) % 8
		vector.StrokeLine(screen,
			cx+vx[i], cy+vy[i], cx+vx[j], cy+vy[j],
			1, ColOctagon, true)
	}
}

func drawTriangle(screen *ebiten.Image, cx, cy float32) {
	const radius = 20
	fillPolygon(screen, []point{
		{cx, cy - radius},
		{cx - radius, cy + radius},
		{cx + radius, cy + radius},
	}, ColTriangle)
}

func drawDiamond(screen *ebiten.Image, cx, cy float32) {
	const base, height = 18, 24
	fillPolygon(screen, []point{
		{cx, cy - height},
		{cx - base, cy},
		{cx, cy + height},
		{cx + base, cy},
	}, ColDiamond)
}

func drawRectangle(screen *ebiten.Image, cx, cy float32) {
	const width, height = 30, 20
	vector.DrawFilledRect(screen, cx-width, cy-height, 2*width, 2*height, ColRectangle, false)
}

func drawOval(screen *ebiten.Image, cx, cy float32) {
	const rx, ry, segments = 30, 20, 48
	pts := make([]point, segments)
	for i := range pts {
		theta := 2 * math.Pi * float64(i) / segments
		pts[i] = point{
			cx + rx*float32(math.Cos(theta)),
			cy + ry*float32(math.Sin(theta)),
		}
	}
	fillPolygon(screen, pts, ColOval)
}

func drawCircle(screen *ebiten.Image, cx, cy float32) {
	const radius = 20
	vector.DrawFilledCircle(screen, cx, cy, radius, ColCircle, true)
}
