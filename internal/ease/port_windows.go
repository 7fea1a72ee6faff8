//go:build windows

package ease

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"
	"unsafe"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows      = user32.NewProc("EnumWindows")
	procEnumChildWindows = user32.NewProc("EnumChildWindows")
	procGetWindowTextW   = user32.NewProc("GetWindowTextW")
	procGetClassNameW    = user32.NewProc("GetClassNameW")
	procIsWindowVisible  = user32.NewProc("IsWindowVisible")
	procIsWindow         = user32.NewProc("IsWindow")
	procSetForeground    = user32.NewProc("SetForegroundWindow")
	procSendMessageW     = user32.NewProc("SendMessageW")
	procKeybdEvent       = user32.NewProc("keybd_event")
	procVkKeyScanW       = user32.NewProc("VkKeyScanW")
)

// win32 message and key constants used by the adapter.
const (
	bmClick         = 0x00F5
	cbSelectString  = 0x014D
	keyeventfKeyUp  = 0x0002
	vkShift         = 0x10
	vkControl       = 0x11
	vkMenu          = 0x12
	vkReturn        = 0x0D
	vkBack          = 0x08
	vkDown          = 0x28
	vkF5            = 0x74
	keystrokeDelay  = 20 * time.Millisecond
	windowPollDelay = 200 * time.Millisecond
)

// winPort drives the vendor application through win32 window messages and
// synthetic keystrokes.
type winPort struct {
	log     *zap.SugaredLogger
	timeout time.Duration

	cmd  *exec.Cmd
	proc *process.Process
}

// NewNativePort creates the production Windows automation port.
func NewNativePort(logger *zap.SugaredLogger) Port {
	return &winPort{log: logger, timeout: 2 * time.Minute}
}

// Launch starts the vendor executable and attaches the CPU probe.
func (p *winPort) Launch(ctx context.Context, binary string) error {
	cmd := exec.Command(binary)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", binary, err)
	}

	proc, err := process.NewProcess(int32(cmd.Process.Pid))
	if err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("attach to pid %d: %w", cmd.Process.Pid, err)
	}

	p.cmd = cmd
	p.proc = proc
	return nil
}

// OpenFile types a path into a file-open sub-window and submits it.
func (p *winPort) OpenFile(ctx context.Context, dialog, path string) error {
	hwnd, err := p.waitWindow(ctx, dialog)
	if err != nil {
		return err
	}
	procSetForeground.Call(uintptr(hwnd))
	time.Sleep(windowPollDelay)

	if err := p.typeKeys(EscapeKeys(path)); err != nil {
		return err
	}
	return p.typeKeys("{ENTER}")
}

// SaveFile clears the filename field of an export dialog, types the target
// path, submits, and waits for the dialog to close.
func (p *winPort) SaveFile(ctx context.Context, dialog, path string) error {
	hwnd, err := p.waitWindow(ctx, dialog)
	if err != nil {
		return err
	}
	procSetForeground.Call(uintptr(hwnd))
	time.Sleep(windowPollDelay)

	// Alt-N focuses the filename field, backspace clears the prefilled name.
	if err := p.typeKeys("%n{BACKSPACE}"); err != nil {
		return err
	}
	if err := p.typeKeys(EscapeKeys(path)); err != nil {
		return err
	}
	if err := p.typeKeys("{ENTER}"); err != nil {
		return err
	}
	return p.waitWindowGone(ctx, hwnd)
}

// SendKeys focuses a window and sends an accelerator sequence.
func (p *winPort) SendKeys(ctx context.Context, window, keys string) error {
	hwnd, err := p.waitWindow(ctx, window)
	if err != nil {
		return err
	}
	procSetForeground.Call(uintptr(hwnd))
	time.Sleep(windowPollDelay)
	return p.typeKeys(keys)
}

// FindResultsView tries the expected title first, then falls back to the
// first visible window with non-empty text.
func (p *winPort) FindResultsView(ctx context.Context, expectedTitle string) (string, []string, error) {
	deadline := time.Now().Add(p.timeout)
	tried := []string{}
	for {
		if err := ctx.Err(); err != nil {
			return "", tried, err
		}

		titles := topWindowTitles()
		tried = titles
		for _, title := range titles {
			if title == expectedTitle {
				return title, nil, nil
			}
		}
		// Fallback: the vendor title format is not predictable, take the
		// first window exposing any text.
		for _, title := range titles {
			if strings.TrimSpace(title) != "" {
				return title, nil, nil
			}
		}

		if time.Now().After(deadline) {
			return "", tried, errors.New("no window with text appeared")
		}
		time.Sleep(windowPollDelay)
	}
}

// SelectCombo selects an item by label in a combo box identified by the
// static label preceding it.
func (p *winPort) SelectCombo(ctx context.Context, window, control, item string) error {
	hwnd, err := p.waitWindow(ctx, window)
	if err != nil {
		return err
	}

	combo := findChild(hwnd, control, "ComboBox")
	if combo == 0 {
		return fmt.Errorf("combo box %q not found in %q", control, window)
	}

	text, err := windows.UTF16PtrFromString(item)
	if err != nil {
		return err
	}
	ret, _, _ := procSendMessageW.Call(uintptr(combo), cbSelectString, ^uintptr(0), uintptr(unsafe.Pointer(text)))
	if int32(ret) < 0 {
		return fmt.Errorf("combo box %q has no item %q", control, item)
	}
	return nil
}

// Click sends BM_CLICK to a named button-like control.
func (p *winPort) Click(ctx context.Context, window, control string) error {
	hwnd, err := p.waitWindow(ctx, window)
	if err != nil {
		return err
	}

	button := findChild(hwnd, control, "")
	if button == 0 {
		return fmt.Errorf("control %q not found in %q", control, window)
	}
	procSendMessageW.Call(uintptr(button), bmClick, 0, 0)
	return nil
}

// WaitQuiescent polls vendor process CPU usage until it drops below the
// idle threshold.
func (p *winPort) WaitQuiescent(ctx context.Context) error {
	if p.proc == nil {
		return errors.New("no vendor process attached")
	}

	deadline := time.Now().Add(p.timeout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pct, err := p.proc.Percent(windowPollDelay)
		if err != nil {
			return fmt.Errorf("sample vendor cpu usage: %w", err)
		}
		if pct < cpuIdleThreshold {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("vendor process stayed busy past timeout")
		}
	}
}

// Kill force-terminates the vendor process.
func (p *winPort) Kill() {
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
		_, _ = p.cmd.Process.Wait()
	}
	p.cmd = nil
	p.proc = nil
}

// waitWindow polls for a visible window whose normalized title matches name.
func (p *winPort) waitWindow(ctx context.Context, name string) (windows.HWND, error) {
	deadline := time.Now().Add(p.timeout)
	want := normalizeID(name)
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		var found windows.HWND
		enumWindows(func(hwnd windows.HWND) bool {
			visible, _, _ := procIsWindowVisible.Call(uintptr(hwnd))
			if visible == 0 {
				return true
			}
			if normalizeID(windowText(hwnd)) == want {
				found = hwnd
				return false
			}
			return true
		})
		if found != 0 {
			return found, nil
		}

		if time.Now().After(deadline) {
			return 0, fmt.Errorf("window %q never became visible", name)
		}
		time.Sleep(windowPollDelay)
	}
}

// waitWindowGone polls until a window handle is destroyed or hidden.
func (p *winPort) waitWindowGone(ctx context.Context, hwnd windows.HWND) error {
	deadline := time.Now().Add(p.timeout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		alive, _, _ := procIsWindow.Call(uintptr(hwnd))
		visible, _, _ := procIsWindowVisible.Call(uintptr(hwnd))
		if alive == 0 || visible == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("export dialog never closed")
		}
		time.Sleep(windowPollDelay)
	}
}

// typeKeys synthesizes a pywinauto-style keystroke sequence: % alt, ^ ctrl,
// + shift prefixes, {NAME} or {NAME count} special keys, {+} literal plus,
// everything else typed as characters.
func (p *winPort) typeKeys(keys string) error {
	var modifiers []byte
	runes := []rune(keys)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '%':
			modifiers = append(modifiers, vkMenu)
		case '^':
			modifiers = append(modifiers, vkControl)
		case '+':
			modifiers = append(modifiers, vkShift)
		case '{':
			end := strings.IndexRune(string(runes[i:]), '}')
			if end < 0 {
				return fmt.Errorf("unterminated key group in %q", keys)
			}
			group := string(runes[i+1 : i+end])
			if err := pressGroup(group, modifiers); err != nil {
				return err
			}
			modifiers = nil
			i += end
		default:
			if err := pressChar(runes[i], modifiers); err != nil {
				return err
			}
			modifiers = nil
		}
		time.Sleep(keystrokeDelay)
	}
	return nil
}

// pressGroup handles one {NAME} or {NAME count} group.
func pressGroup(group string, modifiers []byte) error {
	name := group
	count := 1
	if fields := strings.Fields(group); len(fields) == 2 {
		name = fields[0]
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("bad key repeat count in {%s}", group)
		}
		count = n
	}

	var vk byte
	switch name {
	case "ENTER":
		vk = vkReturn
	case "BACKSPACE":
		vk = vkBack
	case "DOWN":
		vk = vkDown
	case "F5":
		vk = vkF5
	case "+":
		return pressChar('+', modifiers)
	default:
		return fmt.Errorf("unsupported key group {%s}", group)
	}

	for n := 0; n < count; n++ {
		pressKey(vk, modifiers)
		time.Sleep(keystrokeDelay)
	}
	return nil
}

// pressChar resolves a character to its virtual key and shift state.
func pressChar(r rune, modifiers []byte) error {
	scan, _, _ := procVkKeyScanW.Call(uintptr(uint16(r)))
	code := int16(scan)
	if code == -1 {
		return fmt.Errorf("character %q has no virtual key", r)
	}

	vk := byte(code & 0xFF)
	if code&0x0100 != 0 {
		modifiers = append(append([]byte(nil), modifiers...), vkShift)
	}
	pressKey(vk, modifiers)
	return nil
}

// pressKey emits key-down/key-up events with held modifiers.
func pressKey(vk byte, modifiers []byte) {
	for _, mod := range modifiers {
		procKeybdEvent.Call(uintptr(mod), 0, 0, 0)
	}
	procKeybdEvent.Call(uintptr(vk), 0, 0, 0)
	procKeybdEvent.Call(uintptr(vk), 0, keyeventfKeyUp, 0)
	for i := len(modifiers) - 1; i >= 0; i-- {
		procKeybdEvent.Call(uintptr(modifiers[i]), 0, keyeventfKeyUp, 0)
	}
}

// enumVisit holds the active visitor for the shared enum callback.
// Callbacks registered with syscall.NewCallback are never released, so one
// callback is reused for every enumeration. The port runs single-threaded
// under the batch session lock.
var enumVisit func(windows.HWND) bool

var enumCallback = syscall.NewCallback(func(hwnd syscall.Handle, _ uintptr) uintptr {
	if enumVisit(windows.HWND(hwnd)) {
		return 1
	}
	return 0
})

// enumWindows visits every top-level window until the callback returns
// false.
func enumWindows(visit func(windows.HWND) bool) {
	enumVisit = visit
	defer func() { enumVisit = nil }()
	procEnumWindows.Call(enumCallback, 0)
}

// topWindowTitles lists the titles of all visible top-level windows.
func topWindowTitles() []string {
	var titles []string
	enumWindows(func(hwnd windows.HWND) bool {
		visible, _, _ := procIsWindowVisible.Call(uintptr(hwnd))
		if visible != 0 {
			titles = append(titles, windowText(hwnd))
		}
		return true
	})
	return titles
}

// findChild scans a window's children for a control matching the given
// identifier. Controls are matched by their own text, or by the text of the
// preceding static label for unlabeled controls like combo boxes.
func findChild(parent windows.HWND, control, wantClass string) windows.HWND {
	want := normalizeID(control)
	var lastStatic string
	var found windows.HWND

	enumVisit = func(h windows.HWND) bool {
		class := className(h)
		text := windowText(h)

		if class == "Static" {
			lastStatic = text
			return true
		}
		if wantClass != "" && class != wantClass {
			return true
		}

		id := normalizeID(text + class)
		labelled := normalizeID(lastStatic + class)
		if id == want || labelled == want || strings.HasPrefix(want, normalizeID(text)) && text != "" {
			found = h
			return false
		}
		return true
	}
	defer func() { enumVisit = nil }()
	procEnumChildWindows.Call(uintptr(parent), enumCallback, 0)
	return found
}

// windowText reads a window's title or control text.
func windowText(hwnd windows.HWND) string {
	buf := make([]uint16, 512)
	n, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:n])
}

// className reads a window's class name.
func className(hwnd windows.HWND) string {
	buf := make([]uint16, 256)
	n, _, _ := procGetClassNameW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:n])
}

// normalizeID lowercases an identifier and strips everything that is not a
// letter or digit, mirroring how loose window matching tolerates vendor
// punctuation and spacing.
func normalizeID(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
