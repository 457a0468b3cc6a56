package overlay

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"sleek/src/screenshot"
	"sleek/src/selection"
)

const (
	keysymReturn  xproto.Keysym = 0xff0d
	keysymKPEnter xproto.Keysym = 0xff8d
	keysymEscape  xproto.Keysym = 0xff1b
)

var boundKeysyms = map[xproto.Keysym]selection.KeyAction{
	keysymReturn:  selection.KeyConfirm,
	keysymKPEnter: selection.KeyConfirm,
	keysymEscape:  selection.KeyCancel,
}

type keymap map[xproto.Keycode]selection.KeyAction

func (k keymap) action(code xproto.Keycode) selection.KeyAction {
	if a, ok := k[code]; ok {
		return a
	}
	return selection.KeyOther
}

func loadKeymap(conn *xgb.Conn, setup *xproto.SetupInfo) (keymap, error) {
	count := int(setup.MaxKeycode) - int(setup.MinKeycode) + 1
	reply, err := xproto.GetKeyboardMapping(conn, setup.MinKeycode, byte(count)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to read keyboard mapping: %w", err)
	}
	return buildKeymap(setup.MinKeycode, int(reply.KeysymsPerKeycode), reply.Keysyms), nil
}

// buildKeymap binds every keycode carrying Return, KP_Enter or Escape in any
// of its columns.
func buildKeymap(first xproto.Keycode, perCode int, syms []xproto.Keysym) keymap {
	k := keymap{}
	if perCode <= 0 {
		return k
	}
	for i := 0; i+perCode <= len(syms); i += perCode {
		code := xproto.Keycode(int(first) + i/perCode)
		for _, sym := range syms[i : i+perCode] {
			if a, ok := boundKeysyms[sym]; ok {
				k[code] = a
				break
			}
		}
	}
	return k
}

// translate maps an X event to a selection event. Events the selection does
// not consume report false.
func translate(ev xgb.Event, keys keymap) (selection.Event, bool) {
	switch e := ev.(type) {
	case xproto.MotionNotifyEvent:
		return selection.Motion{Pos: point(e.EventX, e.EventY)}, true
	case xproto.ButtonPressEvent:
		return selection.Press{Pos: point(e.EventX, e.EventY), Button: int(e.Detail)}, true
	case xproto.ButtonReleaseEvent:
		return selection.Release{Pos: point(e.EventX, e.EventY), Button: int(e.Detail)}, true
	case xproto.KeyPressEvent:
		return selection.Key{Action: keys.action(e.Detail)}, true
	default:
		return nil, false
	}
}

func point(x, y int16) screenshot.Point {
	return screenshot.Point{X: int(x), Y: int(y)}
}
