// Package window presents frames in an OpenCV HighGUI window and reads key
// presses from it.
package window

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-imgfilter/images"
	"github.com/nvr-ai/go-imgfilter/viewer"
)

var (
	_ viewer.Presenter = (*Window)(nil)
	_ viewer.KeySource = (*Window)(nil)
)

// Window is a viewer.Presenter and viewer.KeySource backed by gocv.
type Window struct {
	win   *gocv.Window
	bgr   gocv.Mat
	delay int
}

// New opens a window with the given title. delay is the key polling
// interval in milliseconds.
func New(title string, delay int) *Window {
	if delay <= 0 {
		delay = 10
	}
	return &Window{
		win:   gocv.NewWindow(title),
		bgr:   gocv.NewMat(),
		delay: delay,
	}
}

// Present converts the RGBA frame to BGR and shows it.
func (w *Window) Present(img *images.Image) error {
	if err := img.Validate(); err != nil {
		return err
	}

	rgba, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC4, img.Data)
	if err != nil {
		return errors.Wrap(err, "failed to wrap frame")
	}
	defer rgba.Close()

	gocv.CvtColor(rgba, &w.bgr, gocv.ColorRGBAToBGR)
	if w.bgr.Empty() {
		return errors.New("color conversion produced an empty frame")
	}
	w.win.IMShow(w.bgr)
	return nil
}

// NextKey waits up to the polling interval for a key press. A closed
// window reports viewer.KeyQuit.
func (w *Window) NextKey() (viewer.Key, bool) {
	if !w.win.IsOpen() {
		return viewer.KeyQuit, true
	}
	k := viewer.KeyFromCode(w.win.WaitKey(w.delay))
	return k, k != viewer.KeyNone
}

// Close releases the window and its conversion buffer.
func (w *Window) Close() error {
	w.bgr.Close()
	return w.win.Close()
}
