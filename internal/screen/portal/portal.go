// Package portal implements the desktop-portal screen capture backend: a
// D-Bus negotiated ScreenCast session that hands back a PipeWire node for
// zero-copy frame delivery (spec component J). Generalized from a
// GNOME/Mutter-specific ScreenCast/RemoteDesktop D-Bus flow down to the
// spec's four portal fields: fd, node id, resolution, position.
package portal

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/yasnikoy/rust-voip-core/internal/screen"
)

const (
	portalBusName  = "org.freedesktop.portal.Desktop"
	portalPath     = dbus.ObjectPath("/org/freedesktop/portal/desktop")
	screenCastIface = "org.freedesktop.portal.ScreenCast"
	requestIface    = "org.freedesktop.portal.Request"
)

// Session holds the four fields the portal hands back once negotiation
// completes (spec §4.J).
type Session struct {
	PipeWireFD int
	NodeID     uint32
	Width      int
	Height     int
	OriginX    int
	OriginY    int
}

// Negotiate walks the portal's CreateSession -> SelectSources -> Start ->
// OpenPipeWireRemote call sequence over conn and returns the resulting
// Session. The first three steps round-trip through the portal's Request
// object pattern: call the method, then wait for its paired
// org.freedesktop.portal.Request.Response signal. OpenPipeWireRemote
// returns the fd directly.
func Negotiate(conn *dbus.Conn) (*Session, error) {
	obj := conn.Object(portalBusName, portalPath)

	sessionPath, err := createSession(conn, obj)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := selectSources(conn, obj, sessionPath); err != nil {
		return nil, fmt.Errorf("select sources: %w", err)
	}

	streams, err := startSession(conn, obj, sessionPath)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	if len(streams) == 0 {
		return nil, fmt.Errorf("portal returned no streams")
	}

	fd, err := openPipeWireRemote(obj, sessionPath)
	if err != nil {
		return nil, fmt.Errorf("open pipewire remote: %w", err)
	}

	s := streams[0]
	return &Session{
		PipeWireFD: fd,
		NodeID:     s.NodeID,
		Width:      s.Width,
		Height:     s.Height,
		OriginX:    s.X,
		OriginY:    s.Y,
	}, nil
}

type streamInfo struct {
	NodeID      uint32
	Width, Height, X, Y int
}

func createSession(conn *dbus.Conn, obj dbus.BusObject) (dbus.ObjectPath, error) {
	token := fmt.Sprintf("core_%d", time.Now().UnixNano())
	options := map[string]dbus.Variant{
		"session_handle_token": dbus.MakeVariant(token),
	}
	var requestPath dbus.ObjectPath
	if err := obj.Call(screenCastIface+".CreateSession", 0, options).Store(&requestPath); err != nil {
		return "", err
	}
	resp, err := awaitResponse(conn, requestPath)
	if err != nil {
		return "", err
	}
	handle, ok := resp["session_handle"].Value().(string)
	if !ok {
		return "", fmt.Errorf("portal response missing session_handle")
	}
	return dbus.ObjectPath(handle), nil
}

func selectSources(conn *dbus.Conn, obj dbus.BusObject, session dbus.ObjectPath) error {
	options := map[string]dbus.Variant{
		"types":       dbus.MakeVariant(uint32(1)), // MONITOR
		"multiple":    dbus.MakeVariant(false),
		"cursor_mode": dbus.MakeVariant(uint32(2)), // embedded
	}
	var requestPath dbus.ObjectPath
	if err := obj.Call(screenCastIface+".SelectSources", 0, session, options).Store(&requestPath); err != nil {
		return err
	}
	_, err := awaitResponse(conn, requestPath)
	return err
}

func startSession(conn *dbus.Conn, obj dbus.BusObject, session dbus.ObjectPath) ([]streamInfo, error) {
	options := map[string]dbus.Variant{}
	var requestPath dbus.ObjectPath
	if err := obj.Call(screenCastIface+".Start", 0, session, "", options).Store(&requestPath); err != nil {
		return nil, err
	}
	resp, err := awaitResponse(conn, requestPath)
	if err != nil {
		return nil, err
	}

	raw, ok := resp["streams"].Value().([][]interface{})
	if !ok {
		return nil, fmt.Errorf("portal response missing streams")
	}
	streams := make([]streamInfo, 0, len(raw))
	for _, entry := range raw {
		if len(entry) < 2 {
			continue
		}
		nodeID, _ := entry[0].(uint32)
		props, _ := entry[1].(map[string]dbus.Variant)
		si := streamInfo{NodeID: nodeID}
		if pos, ok := props["position"]; ok {
			if xy, ok := pos.Value().([]int32); ok && len(xy) == 2 {
				si.X, si.Y = int(xy[0]), int(xy[1])
			}
		}
		if size, ok := props["size"]; ok {
			if wh, ok := size.Value().([]int32); ok && len(wh) == 2 {
				si.Width, si.Height = int(wh[0]), int(wh[1])
			}
		}
		streams = append(streams, si)
	}
	return streams, nil
}

func openPipeWireRemote(obj dbus.BusObject, session dbus.ObjectPath) (int, error) {
	options := map[string]dbus.Variant{}
	var fd dbus.UnixFD
	if err := obj.Call(screenCastIface+".OpenPipeWireRemote", 0, session, options).Store(&fd); err != nil {
		return 0, err
	}
	return int(fd), nil
}

// awaitResponse waits for the Request object's Response signal and returns
// its results map. Portal requests round-trip through a freestanding
// object whose single Response signal carries the call's outcome.
func awaitResponse(conn *dbus.Conn, request dbus.ObjectPath) (map[string]dbus.Variant, error) {
	match := fmt.Sprintf("type='signal',interface='%s',member='Response',path='%s'", requestIface, request)
	if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, match).Err; err != nil {
		return nil, err
	}
	defer conn.BusObject().Call("org.freedesktop.DBus.RemoveMatch", 0, match)

	sigCh := make(chan *dbus.Signal, 1)
	conn.Signal(sigCh)
	defer conn.RemoveSignal(sigCh)

	select {
	case sig := <-sigCh:
		if sig.Path != request || len(sig.Body) < 2 {
			return nil, fmt.Errorf("unexpected portal signal on %s", request)
		}
		code, _ := sig.Body[0].(uint32)
		if code != 0 {
			return nil, fmt.Errorf("portal request failed with code %d", code)
		}
		results, _ := sig.Body[1].(map[string]dbus.Variant)
		return results, nil
	case <-time.After(30 * time.Second):
		return nil, fmt.Errorf("timed out waiting for portal response on %s", request)
	}
}

// StreamOpener opens a PipeWire stream on a negotiated node, requesting
// BGRA pixels with a four-buffer queue. The concrete PipeWire binding is
// supplied by the caller; this package only owns the portal negotiation
// and the receiver-goroutine plumbing around it.
type StreamOpener interface {
	OpenStream(fd int, nodeID uint32, width, height int) (ReceiveCloser, error)
}

// ReceiveCloser delivers frames asynchronously and can be torn down.
type ReceiveCloser interface {
	Frames() <-chan *screen.Frame
	Close()
}

// Capturer drives a negotiated portal session: it forwards frames from the
// PipeWire receiver to Next, and on Stop closes the receiver, whose own
// shutdown ends its forwarding loop.
type Capturer struct {
	conn    *dbus.Conn
	opener  StreamOpener
	session *Session

	stream  ReceiveCloser
	running atomic.Bool
	mu      sync.Mutex
}

// New negotiates a session over conn and prepares (but does not yet open)
// the PipeWire stream.
func New(conn *dbus.Conn, opener StreamOpener) (*Capturer, error) {
	s, err := Negotiate(conn)
	if err != nil {
		return nil, err
	}
	return &Capturer{conn: conn, opener: opener, session: s}, nil
}

// Start opens the PipeWire stream on the negotiated node. fps is advisory:
// the portal's compositor drives the actual frame rate.
func (c *Capturer) Start(fps int) error {
	stream, err := c.opener.OpenStream(c.session.PipeWireFD, c.session.NodeID, c.session.Width, c.session.Height)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.stream = stream
	c.mu.Unlock()
	c.running.Store(true)
	return nil
}

// Next waits up to timeout for the receiver to forward the next frame.
func (c *Capturer) Next(timeout time.Duration) (*screen.Frame, error) {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil || !c.running.Load() {
		return nil, nil
	}
	select {
	case f, ok := <-stream.Frames():
		if !ok {
			return nil, nil
		}
		return f, nil
	case <-time.After(timeout):
		return nil, nil
	}
}

// Stop closes the receiver (its own dedicated shutdown channel terminates
// the forwarding loop) and marks the capturer no longer running.
func (c *Capturer) Stop() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream != nil {
		stream.Close()
	}
	log.Print("[screen] portal capturer stopped")
}

var _ screen.Capturer = (*Capturer)(nil)
