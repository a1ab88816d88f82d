package layout

import "math"

func equalWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

// splitRow divides r into columns proportional to weights.
func splitRow(r Rect, weights []float64) []Rect {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	out := make([]Rect, len(weights))
	x := r.X
	for i, w := range weights {
		width := r.Width * w / total
		if i == len(weights)-1 {
			width = r.MaxX() - x
		}
		out[i] = Rect{X: x, Y: r.Y, Width: width, Height: r.Height}
		x += width
	}
	return out
}

// splitColumn divides r into rows proportional to weights.
func splitColumn(r Rect, weights []float64) []Rect {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	out := make([]Rect, len(weights))
	y := r.Y
	for i, w := range weights {
		height := r.Height * w / total
		if i == len(weights)-1 {
			height = r.MaxY() - y
		}
		out[i] = Rect{X: r.X, Y: y, Width: r.Width, Height: height}
		y += height
	}
	return out
}

// gridRects lays n cells on a near-square grid. A short last row stretches
// its cells across the full width so the canvas stays covered.
func gridRects(r Rect, n int) []Rect {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols

	out := make([]Rect, 0, n)
	for i, row := range splitColumn(r, equalWeights(rows)) {
		count := cols
		if remaining := n - i*cols; remaining < cols {
			count = remaining
		}
		out = append(out, splitRow(row, equalWeights(count))...)
	}
	return out
}

// template builds the predetermined arrangement for exactly n images, or
// returns nil when it has none for that count.
type template func(r Rect, n int) []Rect

// fromTemplate uses the largest template arrangement that fits n and then
// subdivides the biggest cells until there are n of them.
func fromTemplate(r Rect, n int, t template) []Rect {
	k := n
	var rects []Rect
	for ; k >= 1; k-- {
		if rects = t(r, k); rects != nil {
			break
		}
	}
	if rects == nil {
		rects = []Rect{r}
	}
	return subdivide(rects, n)
}

// subdivide splits the largest cell along its longer side until len == n.
// Split halves take the position of the split cell so reading order holds.
func subdivide(rects []Rect, n int) []Rect {
	for len(rects) < n {
		largest := 0
		for i, r := range rects {
			if r.Area() > rects[largest].Area() {
				largest = i
			}
		}
		var halves []Rect
		if rects[largest].Width >= rects[largest].Height {
			halves = splitRow(rects[largest], []float64{1, 1})
		} else {
			halves = splitColumn(rects[largest], []float64{1, 1})
		}
		next := make([]Rect, 0, len(rects)+1)
		next = append(next, rects[:largest]...)
		next = append(next, halves...)
		next = append(next, rects[largest+1:]...)
		rects = next
	}
	return rects
}

// collage1 favours one hero image on the left or top.
func collage1(r Rect, n int) []Rect {
	switch n {
	case 1:
		return []Rect{r}
	case 2:
		return splitRow(r, []float64{3, 2})
	case 3:
		halves := splitRow(r, []float64{1, 1})
		return append([]Rect{halves[0]}, splitColumn(halves[1], []float64{1, 1})...)
	case 4:
		rows := splitColumn(r, []float64{3, 2})
		return append([]Rect{rows[0]}, splitRow(rows[1], equalWeights(3))...)
	case 5:
		cols := splitRow(r, []float64{1, 1})
		return append(splitColumn(cols[0], []float64{1, 1}), splitColumn(cols[1], equalWeights(3))...)
	}
	return nil
}

// collage2 uses staggered rows.
func collage2(r Rect, n int) []Rect {
	switch n {
	case 1:
		return []Rect{r}
	case 2:
		return splitColumn(r, []float64{2, 3})
	case 3:
		rows := splitColumn(r, []float64{1, 1})
		return append(splitRow(rows[0], []float64{1, 1}), rows[1])
	case 4:
		rows := splitColumn(r, []float64{1, 1})
		return append(splitRow(rows[0], []float64{13, 7}), splitRow(rows[1], []float64{7, 13})...)
	case 5:
		rows := splitColumn(r, []float64{1, 1})
		return append(splitRow(rows[0], []float64{1, 1}), splitRow(rows[1], equalWeights(3))...)
	case 6:
		rows := splitColumn(r, []float64{1, 1})
		return append(splitRow(rows[0], []float64{2, 1, 1}), splitRow(rows[1], []float64{1, 1, 2})...)
	}
	return nil
}

// mosaicRowCounts alternates rows of two and three images. A remainder of
// one joins the current row instead of sitting alone.
func mosaicRowCounts(n int) []int {
	var counts []int
	for remaining, i := n, 0; remaining > 0; i++ {
		c := 2 + i%2
		if c > remaining || remaining-c == 1 {
			c = remaining
		}
		counts = append(counts, c)
		remaining -= c
	}
	return counts
}

func mosaicRects(r Rect, n int) []Rect {
	counts := mosaicRowCounts(n)
	out := make([]Rect, 0, n)
	for i, row := range splitColumn(r, equalWeights(len(counts))) {
		var weights []float64
		switch counts[i] {
		case 2:
			if i%4 == 0 {
				weights = []float64{3, 2}
			} else {
				weights = []float64{2, 3}
			}
		case 3:
			weights = []float64{2, 3, 2}
		default:
			weights = equalWeights(counts[i])
		}
		out = append(out, splitRow(row, weights)...)
	}
	return out
}
