package viewer

// Key is a user action, decoupled from whatever input device produced it.
type Key int

const (
	KeyNone Key = iota
	KeyContrastDown
	KeyContrastUp
	KeyBrightnessDown
	KeyBrightnessUp
	KeyToggleBlur
	KeyKernelSmaller
	KeyKernelLarger
	KeySigmaDown
	KeySigmaUp
	KeyReset
	KeyQuit
)

var keyNames = map[Key]string{
	KeyNone:           "none",
	KeyContrastDown:   "contrast-down",
	KeyContrastUp:     "contrast-up",
	KeyBrightnessDown: "brightness-down",
	KeyBrightnessUp:   "brightness-up",
	KeyToggleBlur:     "toggle-blur",
	KeyKernelSmaller:  "kernel-smaller",
	KeyKernelLarger:   "kernel-larger",
	KeySigmaDown:      "sigma-down",
	KeySigmaUp:        "sigma-up",
	KeyReset:          "reset",
	KeyQuit:           "quit",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "unknown"
}

// KeySource delivers key presses. NextKey blocks for at most one polling
// interval and reports false when nothing was pressed.
type KeySource interface {
	NextKey() (Key, bool)
}

// OpenCV key codes as returned by waitKey, which keeps only the low byte.
// Arrow keys arrive as 81-84 on the GTK backend, which collides with
// upper-case Q to T, so those letters are only mapped in lower case.
const (
	codeLeft   = 81
	codeUp     = 82
	codeRight  = 83
	codeDown   = 84
	codeEscape = 27
)

// KeyFromCode maps a waitKey code to a Key. Letters are accepted as
// alternatives to the arrow keys for backends that do not report them.
func KeyFromCode(code int) Key {
	if code < 0 {
		return KeyNone
	}
	switch code & 0xFF {
	case codeLeft, 'a':
		return KeyContrastDown
	case codeRight, 'd':
		return KeyContrastUp
	case codeDown, 's':
		return KeyBrightnessDown
	case codeUp, 'w':
		return KeyBrightnessUp
	case 'b', 'B':
		return KeyToggleBlur
	case '[':
		return KeyKernelSmaller
	case ']':
		return KeyKernelLarger
	case '-', '_':
		return KeySigmaDown
	case '=', '+':
		return KeySigmaUp
	case 'r':
		return KeyReset
	case 'q', codeEscape:
		return KeyQuit
	default:
		return KeyNone
	}
}
