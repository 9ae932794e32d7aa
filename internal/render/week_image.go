// Package render draws a mentor's weekly availability template as a PNG
// grid: one column per weekday, one row per slot on the time grid.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/mentorhub/booking/internal/model"
)

const (
	imageWidth      = 1180
	headerHeight    = 60
	leftLabelsWidth = 80
	dayWidth        = (imageWidth - leftLabelsWidth) / 7
	rowHeight       = 34
	cellPadding     = 3.0
	cornerRadius    = 5.0

	defaultDayStart = model.TimeOfDay(9 * 60)
	defaultDayEnd   = model.TimeOfDay(17*60 + 30)
	defaultStep     = 30
)

var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	headerColor    = color.RGBA{80, 85, 90, 255}
	hourLabelColor = color.RGBA{110, 115, 120, 255}
	gridLineColor  = color.RGBA{220, 220, 220, 255}
	slotColor      = color.RGBA{133, 193, 85, 255}
	slotTextColor  = color.RGBA{20, 24, 28, 255}
)

// WeeklyAvailability renders the template slots into a PNG. The time axis
// spans the product's working-hours grid, widened if any slot falls outside
// it.
func WeeklyAvailability(slots []model.WeekdaySlot) ([]byte, error) {
	start, end, step := timeAxis(slots)
	rows := int(end-start)/step + 1
	height := headerHeight + rows*rowHeight

	dc := gg.NewContext(imageWidth, height)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	drawGrid(dc, start, step, rows)

	for _, slot := range slots {
		drawSlot(dc, slot, start, step)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode availability image: %w", err)
	}
	return buf.Bytes(), nil
}

func timeAxis(slots []model.WeekdaySlot) (start, end model.TimeOfDay, step int) {
	start, end, step = defaultDayStart, defaultDayEnd, defaultStep
	for _, slot := range slots {
		if slot.Start < start {
			start = slot.Start
		}
		if slot.Start > end {
			end = slot.Start
		}
		if slot.DurationMinutes > 0 && slot.DurationMinutes < step {
			step = slot.DurationMinutes
		}
	}
	// Snap the axis origin to the grid so rows line up.
	start = start - start%model.TimeOfDay(step)
	return start, end, step
}

func drawGrid(dc *gg.Context, start model.TimeOfDay, step, rows int) {
	height := float64(dc.Height())

	// Weekday headers, Monday first to match the product calendar.
	for i := 0; i < 7; i++ {
		weekday := time.Weekday((i + 1) % 7)
		x := float64(leftLabelsWidth + i*dayWidth + dayWidth/2)
		dc.SetColor(headerColor)
		dc.DrawStringAnchored(weekday.String(), x, headerHeight/2, 0.5, 0.5)

		dc.SetColor(gridLineColor)
		lineX := float64(leftLabelsWidth + i*dayWidth)
		dc.DrawLine(lineX, headerHeight, lineX, height)
		dc.Stroke()
	}

	// Time labels and row lines.
	for row := 0; row < rows; row++ {
		label := start + model.TimeOfDay(row*step)
		y := float64(headerHeight + row*rowHeight)

		dc.SetColor(hourLabelColor)
		dc.DrawStringAnchored(label.String(), leftLabelsWidth/2, y+rowHeight/2, 0.5, 0.5)

		dc.SetColor(gridLineColor)
		dc.DrawLine(leftLabelsWidth, y, imageWidth, y)
		dc.Stroke()
	}
}

func drawSlot(dc *gg.Context, slot model.WeekdaySlot, start model.TimeOfDay, step int) {
	// Column index with Monday first.
	col := (int(slot.Weekday) + 6) % 7
	row := int(slot.Start-start) / step

	x := float64(leftLabelsWidth+col*dayWidth) + cellPadding
	y := float64(headerHeight+row*rowHeight) + cellPadding
	w := float64(dayWidth) - 2*cellPadding
	h := float64(rowHeight) - 2*cellPadding

	dc.SetColor(slotColor)
	dc.DrawRoundedRectangle(x, y, w, h, cornerRadius)
	dc.Fill()

	dc.SetColor(slotTextColor)
	dc.DrawStringAnchored(slot.Start.String(), x+w/2, y+h/2, 0.5, 0.5)
}
