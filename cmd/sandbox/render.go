package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/playmatatu/bouncer/internal/game"
)

type cell struct {
	r     rune
	style tcell.Style
}

// canvas is a character grid the size of the terminal.
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([]cell, w*h)}
	c.clear()
	return c
}

func (c *canvas) clear() {
	for i := range c.cells {
		c.cells[i] = cell{r: ' ', style: tcell.StyleDefault}
	}
}

func (c *canvas) set(x, y int, r rune, st tcell.Style) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y*c.w+x] = cell{r: r, style: st}
}

func (c *canvas) at(x, y int) rune {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return 0
	}
	return c.cells[y*c.w+x].r
}

func (c *canvas) text(x, y int, s string, st tcell.Style) {
	for i, r := range []rune(s) {
		c.set(x+i, y, r, st)
	}
}

var (
	styleBall   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleSlab   = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleGround = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleWall   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
)

// hudRows is the number of rows above the field reserved for the status line.
const hudRows = 1

// draw paints the run onto c. The field is scaled to fit below the HUD line.
func draw(c *canvas, run *game.Run) {
	c.clear()
	if c.w < 3 || c.h < hudRows+3 {
		return
	}
	field := run.Field()
	innerW, innerH := c.w-2, c.h-hudRows-1
	sx := float64(innerW) / field.Width
	sy := float64(innerH) / field.Height
	toCell := func(x, y float64) (int, int) {
		return 1 + int(math.Floor(x*sx)), hudRows + int(math.Floor(y*sy))
	}

	for y := hudRows; y < c.h-1; y++ {
		c.set(0, y, '│', styleWall)
		c.set(c.w-1, y, '│', styleWall)
	}
	for x := 0; x < c.w; x++ {
		c.set(x, c.h-1, '▀', styleGround)
	}

	for _, s := range run.Slabs() {
		center, size := s.Center(), s.Size()
		x0, y0 := toCell(center.X-size.X/2, center.Y-size.Y/2)
		x1, _ := toCell(center.X+size.X/2, center.Y+size.Y/2)
		for x := x0; x <= x1 && x < c.w-1; x++ {
			c.set(x, y0, '▬', styleSlab)
		}
	}

	ball := run.Ball()
	bx, by := toCell(ball.Position().X, ball.Position().Y)
	if by >= c.h-1 {
		by = c.h - 2
	}
	c.set(bx, by, '●', styleBall)

	st := run.Stats()
	c.text(0, 0, fmt.Sprintf(" score %d  landings %d  bounces %d  tick %d  %s ",
		st.Score, st.Landings, st.Bounces, run.Tick(), ball.GroundInfo()), styleHUD)
}

// blit copies c onto screen.
func blit(screen tcell.Screen, c *canvas) {
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			cl := c.cells[y*c.w+x]
			screen.SetContent(x, y, cl.r, nil, cl.style)
		}
	}
}
