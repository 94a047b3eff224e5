package builder

// Table defines a matrix of cells to draw.
type Table struct {
	Columns    []float64
	Rows       []TableRow
	HeaderRows int
}

// TableRow wraps a slice of cells.
type TableRow struct {
	Cells []TableCell
}

// TableCell configures individual table cell rendering.
type TableCell struct {
	Text            string
	Font            string
	FontSize        float64
	Padding         *CellPadding
	BackgroundColor *Color
	TextColor       Color
	BorderColor     *Color
	BorderWidth     float64
	ColSpan         int
	HAlign          HAlign
	VAlign          VAlign
}

// CellPadding defines per-side padding.
type CellPadding struct {
	Top, Right, Bottom, Left float64
}

// TableOptions configures table rendering. Y is the top edge of the table;
// zero starts below the top margin. Continuation pages start below the top
// margin.
type TableOptions struct {
	X            float64
	Y            float64
	RowHeight    float64
	CellPadding  float64
	BorderColor  Color
	BorderWidth  float64
	HeaderFill   *Color
	DefaultFont  string
	DefaultSize  float64
	TopMargin    float64
	BottomMargin float64
	LeftMargin   float64
	// FinalY receives the bottom edge of the last row.
	FinalY *float64
}

// HAlign controls horizontal text alignment within a cell.
type HAlign string

const (
	HAlignLeft   HAlign = "left"
	HAlignCenter HAlign = "center"
	HAlignRight  HAlign = "right"
)

// VAlign controls vertical text alignment within a cell.
type VAlign string

const (
	VAlignTop    VAlign = "top"
	VAlignMiddle VAlign = "middle"
	VAlignBottom VAlign = "bottom"
)

// DrawTable draws table rows top down. Rows that do not fit above the
// bottom margin continue on a new page of the same size, repeating the
// header rows. The returned PageBuilder is the page holding the last row.
func (p *pageBuilderImpl) DrawTable(table Table, opts TableOptions) PageBuilder {
	if len(table.Columns) == 0 || len(table.Rows) == 0 || !p.usable() {
		return p
	}
	cur := p
	borderWidth := opts.BorderWidth
	if borderWidth == 0 {
		borderWidth = 0.5
	}
	cellPad := opts.CellPadding
	if cellPad == 0 {
		cellPad = 4
	}
	defaultSize := opts.DefaultSize
	if defaultSize == 0 {
		defaultSize = 12
	}
	if opts.X == 0 && opts.LeftMargin > 0 {
		opts.X = opts.LeftMargin
	}
	headerCount := min(table.HeaderRows, len(table.Rows))
	pageWidth, pageHeight := cur.Size()
	if opts.Y == 0 {
		opts.Y = pageHeight - opts.TopMargin
	}

	resolvePadding := func(pad *CellPadding) CellPadding {
		if pad != nil {
			return *pad
		}
		return CellPadding{Top: cellPad, Right: cellPad, Bottom: cellPad, Left: cellPad}
	}
	cellSize := func(cell TableCell) float64 {
		if cell.FontSize > 0 {
			return cell.FontSize
		}
		return defaultSize
	}
	cellFont := func(cell TableCell) string {
		if cell.Font != "" {
			return cell.Font
		}
		return opts.DefaultFont
	}

	rowHeights := make([]float64, len(table.Rows))
	for i, row := range table.Rows {
		var h float64
		for _, cell := range row.Cells {
			pad := resolvePadding(cell.Padding)
			h = max(h, cellSize(cell)*1.2+pad.Top+pad.Bottom)
		}
		h = max(h, opts.RowHeight)
		if h == 0 {
			h = defaultSize*1.2 + 2*cellPad
		}
		rowHeights[i] = h
	}
	spanWidth := func(startCol, span int) float64 {
		end := min(startCol+max(span, 1), len(table.Columns))
		width := 0.0
		for i := startCol; i < end; i++ {
			width += table.Columns[i]
		}
		return width
	}
	nextPage := func() {
		cur.Finish()
		next := cur.parent.NewPage(pageWidth, pageHeight).(*pageBuilderImpl)
		if cur.rotation != 0 {
			next.SetRotation(cur.rotation)
		}
		cur = next
	}

	curY, pageTop := opts.Y, opts.Y
	var renderRow func(row TableRow, height float64, isHeader, allowBreak bool)
	renderRow = func(row TableRow, height float64, isHeader, allowBreak bool) {
		if allowBreak && curY-height < opts.BottomMargin && curY < pageTop {
			nextPage()
			pageTop = pageHeight - opts.TopMargin
			curY = pageTop
			for i := 0; i < headerCount; i++ {
				renderRow(table.Rows[i], rowHeights[i], true, false)
			}
		}
		x := opts.X
		for col := 0; col < len(table.Columns) && col < len(row.Cells); col++ {
			cell := row.Cells[col]
			span := max(cell.ColSpan, 1)
			width := spanWidth(col, span)
			pad := resolvePadding(cell.Padding)

			fill := cell.BackgroundColor
			if fill == nil && isHeader {
				fill = opts.HeaderFill
			}
			if fill != nil {
				cur.DrawRectangle(x, curY-height, width, height, RectOptions{Fill: true, FillColor: *fill})
			}
			bw := cell.BorderWidth
			if bw == 0 {
				bw = borderWidth
			}
			bc := opts.BorderColor
			if cell.BorderColor != nil {
				bc = *cell.BorderColor
			}
			if bw > 0 {
				cur.DrawRectangle(x, curY-height, width, height, RectOptions{Stroke: true, StrokeColor: bc, LineWidth: bw})
			}

			size := cellSize(cell)
			font := cellFont(cell)
			textX := x + pad.Left
			textY := curY - pad.Top - size
			switch cell.HAlign {
			case HAlignCenter:
				available := width - pad.Left - pad.Right
				textX = x + pad.Left + (available-cur.parent.MeasureText(cell.Text, size, font))/2
			case HAlignRight:
				textX = x + width - pad.Right - cur.parent.MeasureText(cell.Text, size, font)
			}
			switch cell.VAlign {
			case VAlignMiddle:
				textY = curY - height/2 - size/3
			case VAlignBottom:
				textY = curY - height + pad.Bottom + size*0.2
			}
			if cell.Text != "" {
				cur.DrawText(cell.Text, textX, textY, TextOptions{Font: font, FontSize: size, Color: cell.TextColor})
			}
			x += width
			col += span - 1
		}
		curY -= height
	}

	for i, row := range table.Rows {
		renderRow(row, rowHeights[i], i < headerCount, true)
	}
	if opts.FinalY != nil {
		*opts.FinalY = curY
	}
	return cur
}
