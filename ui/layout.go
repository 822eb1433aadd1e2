package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// splitLayout places two objects side by side, the first taking a fixed
// share of the width.
type splitLayout struct {
	first, second fyne.CanvasObject
	share         float32 // of the container width given to first
	opposed       bool    // push second to the right edge
}

func (s *splitLayout) MinSize(_ []fyne.CanvasObject) fyne.Size {
	a, b := s.first.MinSize(), s.second.MinSize()
	return fyne.NewSize(a.Width+b.Width, fyne.Max(a.Height, b.Height))
}

func (s *splitLayout) Layout(_ []fyne.CanvasObject, size fyne.Size) {
	firstWidth := size.Width * s.share
	secondWidth := size.Width - firstWidth

	s.first.Resize(fyne.NewSize(firstWidth, s.first.MinSize().Height))
	s.first.Move(fyne.NewPos(0, 0))

	secondSize := fyne.NewSize(secondWidth, s.second.MinSize().Height)
	secondX := firstWidth
	if s.opposed {
		secondSize.Width = fyne.Min(secondWidth, s.second.MinSize().Width)
		secondX = size.Width - secondSize.Width
	}
	s.second.Resize(secondSize)
	s.second.Move(fyne.NewPos(secondX, 0))
}

// newSplitRow gives first a third of the row and second the rest.
func newSplitRow(first, second fyne.CanvasObject) *fyne.Container {
	return container.New(&splitLayout{first: first, second: second, share: 1.0 / 3}, first, second)
}

// newOpposedRow keeps first on the left and second flush right.
func newOpposedRow(first, second fyne.CanvasObject) *fyne.Container {
	return container.New(&splitLayout{first: first, second: second, share: 2.0 / 3, opposed: true}, first, second)
}
