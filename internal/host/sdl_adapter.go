package host

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/veandco/go-sdl2/sdl"

	"c64/internal/debug"
)

// palette is the standard 16-color C64 palette, indexed by the 4-bit
// color values the VIC hands to ScreenUpdatePixel.
var palette = [16]color.RGBA{
	{0x00, 0x00, 0x00, 0xFF}, // black
	{0xFF, 0xFF, 0xFF, 0xFF}, // white
	{0x88, 0x39, 0x32, 0xFF}, // red
	{0x67, 0xB6, 0xBD, 0xFF}, // cyan
	{0x8B, 0x3F, 0x96, 0xFF}, // purple
	{0x55, 0xA0, 0x49, 0xFF}, // green
	{0x40, 0x31, 0x8D, 0xFF}, // blue
	{0xBF, 0xCE, 0x72, 0xFF}, // yellow
	{0x8B, 0x54, 0x29, 0xFF}, // orange
	{0x57, 0x42, 0x00, 0xFF}, // brown
	{0xB8, 0x69, 0x62, 0xFF}, // light red
	{0x50, 0x50, 0x50, 0xFF}, // dark grey
	{0x78, 0x78, 0x78, 0xFF}, // grey
	{0x94, 0xE0, 0x89, 0xFF}, // light green
	{0x78, 0x69, 0xC4, 0xFF}, // light blue
	{0x9F, 0x9F, 0x9F, 0xFF}, // light grey
}

const refreshInterval = time.Second * 2 / 100 // ~50.125 Hz, rounded

// keymapEntry is a (row, col) keyboard-matrix position.
type keymapEntry struct{ row, col uint8 }

// sdlKeymap mirrors the PC-keycode to C64-matrix-position table used by
// the reference keyboard driver; the Commodore key maps to LGui.
var sdlKeymap = map[sdl.Keycode]keymapEntry{
	sdl.K_a: {1, 2}, sdl.K_b: {3, 4}, sdl.K_c: {2, 4}, sdl.K_d: {2, 2},
	sdl.K_e: {1, 6}, sdl.K_f: {2, 5}, sdl.K_g: {3, 2}, sdl.K_h: {3, 5},
	sdl.K_i: {4, 1}, sdl.K_j: {4, 2}, sdl.K_k: {4, 5}, sdl.K_l: {5, 2},
	sdl.K_m: {4, 4}, sdl.K_n: {4, 7}, sdl.K_o: {4, 6}, sdl.K_p: {5, 1},
	sdl.K_q: {7, 6}, sdl.K_r: {2, 1}, sdl.K_s: {1, 5}, sdl.K_t: {2, 6},
	sdl.K_u: {3, 6}, sdl.K_v: {3, 7}, sdl.K_w: {1, 1}, sdl.K_x: {2, 7},
	sdl.K_y: {3, 1}, sdl.K_z: {1, 4},

	sdl.K_1: {7, 0}, sdl.K_2: {7, 3}, sdl.K_3: {1, 0}, sdl.K_4: {1, 3},
	sdl.K_5: {2, 0}, sdl.K_6: {2, 3}, sdl.K_7: {3, 0}, sdl.K_8: {3, 3},
	sdl.K_9: {4, 0}, sdl.K_0: {4, 3},

	sdl.K_RETURN: {0, 1}, sdl.K_SPACE: {7, 4},
	sdl.K_LSHIFT: {1, 7}, sdl.K_RSHIFT: {6, 4},
	sdl.K_COMMA: {5, 7}, sdl.K_PERIOD: {5, 4}, sdl.K_SLASH: {6, 7},
	sdl.K_SEMICOLON: {6, 2}, sdl.K_EQUALS: {6, 5},
	sdl.K_BACKSPACE: {0, 0}, sdl.K_MINUS: {5, 3},
	sdl.K_BACKSLASH: {5, 5}, sdl.K_LEFTBRACKET: {5, 0},
	sdl.K_RIGHTBRACKET: {6, 1}, sdl.K_QUOTE: {5, 6},
	sdl.K_LGUI: {7, 5}, // Commodore key
}

// SDLAdapter is the production host.Adapter: an SDL2 event pump drives
// keyboard-matrix state, a software RGBA framebuffer accumulates pixels
// written by the VIC, and a Fyne window provides the outer chrome the
// framebuffer is blitted into.
type SDLAdapter struct {
	fyneApp fyne.App
	window  fyne.Window

	image       *image.RGBA
	canvasImg   *canvas.Image
	statusLabel *widget.Label
	scale       int

	keyboardMatrix [8]uint8
	quit           bool
	lastRefresh    time.Time
	unlimited      bool

	frames     uint64
	fpsFrames  int
	fpsUpdated time.Time

	// OnReset is invoked from the Machine/Reset menu item; the CLI wires
	// it to the machine's CPU reset.
	OnReset func()

	logger *debug.Logger
}

// NewSDLAdapter initializes SDL2 for event/keyboard handling and opens a
// Fyne window sized to the visible frame times scale. unlimited disables
// ScreenRefresh's vsync pacing, letting the machine run as fast as the
// host CPU allows.
func NewSDLAdapter(scale int, logger *debug.Logger, unlimited bool) (*SDLAdapter, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("host: sdl init: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, visibleWidth, visibleHeight))
	canvasImg := canvas.NewImageFromImage(img)
	canvasImg.FillMode = canvas.ImageFillContain
	canvasImg.SetMinSize(fyne.NewSize(float32(visibleWidth*scale), float32(visibleHeight*scale)))

	fyneApp := app.NewWithID("com.c64emu.machine")
	window := fyneApp.NewWindow("C64")

	statusLabel := widget.NewLabel("C64")
	content := container.NewBorder(nil, statusLabel, nil, nil, canvasImg)
	window.SetContent(content)
	window.Resize(fyne.NewSize(float32(visibleWidth*scale), float32(visibleHeight*scale)+32))

	a := &SDLAdapter{
		fyneApp:     fyneApp,
		window:      window,
		image:       img,
		canvasImg:   canvasImg,
		statusLabel: statusLabel,
		scale:       scale,
		unlimited:   unlimited,
		fpsUpdated:  time.Now(),
		logger:      logger,
	}
	for i := range a.keyboardMatrix {
		a.keyboardMatrix[i] = 0xFF
	}

	machineMenu := fyne.NewMenu("Machine",
		fyne.NewMenuItem("Reset", func() {
			if a.OnReset != nil {
				a.OnReset()
			}
		}),
		fyne.NewMenuItem("Toggle Fullscreen", func() {
			window.SetFullScreen(!window.FullScreen())
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			a.quit = true
			window.Close()
		}),
	)
	window.SetMainMenu(fyne.NewMainMenu(machineMenu))
	window.SetOnClosed(func() { a.quit = true })

	return a, nil
}

// ShowAndRun starts emulate on its own goroutine and blocks on the Fyne
// event loop until the window closes. Fyne requires its loop to own the
// main goroutine, so the machine's outer loop is the one displaced.
func (a *SDLAdapter) ShowAndRun(emulate func()) {
	go emulate()
	a.window.ShowAndRun()
}

func (a *SDLAdapter) KeyboardMatrixRow(col uint8) uint8 {
	if int(col) >= len(a.keyboardMatrix) {
		return 0xFF
	}
	return a.keyboardMatrix[col]
}

func (a *SDLAdapter) ScreenUpdatePixel(x, y int, colorIndex uint8) {
	if x < 0 || x >= visibleWidth || y < 0 || y >= visibleHeight {
		return
	}
	a.image.SetRGBA(x, y, palette[colorIndex&0x0F])
}

func (a *SDLAdapter) ScreenDrawRect(x, y, width int, colorIndex uint8) {
	for i := 0; i < width; i++ {
		a.ScreenUpdatePixel(x+i, y, colorIndex)
	}
}

func (a *SDLAdapter) ScreenDrawBorder(y int, colorIndex uint8) {
	a.ScreenDrawRect(0, y, visibleWidth, colorIndex)
}

// ScreenRefresh blits the accumulated framebuffer to the window and, by
// default, sleeps the remainder of one ~50.125 Hz frame interval to pace
// the emulator to real time — the only blocking point in the outer loop.
// When unlimited is set, the sleep is skipped entirely.
func (a *SDLAdapter) ScreenRefresh() {
	a.canvasImg.Refresh()

	a.frames++
	a.fpsFrames++
	if since := time.Since(a.fpsUpdated); since >= time.Second {
		fps := float64(a.fpsFrames) / since.Seconds()
		a.statusLabel.SetText(fmt.Sprintf("%.1f FPS · frame %d", fps, a.frames))
		a.fpsFrames = 0
		a.fpsUpdated = time.Now()
	}

	if !a.unlimited {
		elapsed := time.Since(a.lastRefresh)
		if elapsed < refreshInterval {
			time.Sleep(refreshInterval - elapsed)
		}
		a.lastRefresh = time.Now()
	}

	if a.logger != nil {
		a.logger.LogHost(debug.LogLevelTrace, "refresh", nil)
	}
}

// Step pumps the SDL event queue, updating the keyboard matrix and
// detecting the window-close request.
func (a *SDLAdapter) Step() bool {
	for {
		event := sdl.PollEvent()
		if event == nil {
			break
		}
		switch e := event.(type) {
		case *sdl.QuitEvent:
			a.quit = true
		case *sdl.KeyboardEvent:
			pos, ok := sdlKeymap[e.Keysym.Sym]
			if !ok {
				continue
			}
			if e.State == sdl.PRESSED {
				a.keyboardMatrix[pos.row] &^= 1 << pos.col
			} else {
				a.keyboardMatrix[pos.row] |= 1 << pos.col
			}
		}
	}
	return !a.quit
}

// Close releases the SDL subsystem.
func (a *SDLAdapter) Close() {
	sdl.Quit()
}
