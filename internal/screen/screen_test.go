package screen

import (
	"testing"
	"time"
)

func TestSelectFirstAvailableWins(t *testing.T) {
	order := []string{}
	probes := []Probe{
		{
			Name:      "gpu",
			Available: func() bool { order = append(order, "gpu-checked"); return false },
			New:       func() (Capturer, error) { t.Fatal("unavailable backend must not be constructed"); return nil, nil },
		},
		{
			Name:      "portal",
			Available: func() bool { order = append(order, "portal-checked"); return true },
			New:       func() (Capturer, error) { return &fakeCapturer{}, nil },
		},
		{
			Name:      "generic",
			Available: func() bool { t.Fatal("generic should not be probed once portal succeeds"); return true },
			New:       func() (Capturer, error) { return &fakeCapturer{}, nil },
		},
	}

	c, name, err := Select(probes)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if name != "portal" {
		t.Errorf("selected backend: want portal, got %s", name)
	}
	if c == nil {
		t.Fatal("expected non-nil capturer")
	}
	if len(order) != 2 || order[0] != "gpu-checked" || order[1] != "portal-checked" {
		t.Errorf("probe order: got %v", order)
	}
}

func TestSelectFallsThroughOnConstructError(t *testing.T) {
	probes := []Probe{
		{
			Name:      "gpu",
			Available: func() bool { return true },
			New:       func() (Capturer, error) { return nil, errBoom },
		},
		{
			Name:      "generic",
			Available: func() bool { return true },
			New:       func() (Capturer, error) { return &fakeCapturer{}, nil },
		},
	}
	_, name, err := Select(probes)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if name != "generic" {
		t.Errorf("selected backend: want generic, got %s", name)
	}
}

func TestPolicyForLowPower(t *testing.T) {
	p := PolicyFor(true)
	if p.FPS != 30 || p.Width != 1280 || p.Height != 720 {
		t.Errorf("low-power policy: got %+v", p)
	}
	p = PolicyFor(false)
	if p.FPS != 60 || p.Width != 0 || p.Height != 0 {
		t.Errorf("default policy: got %+v", p)
	}
}

type fakeCapturer struct{}

func (f *fakeCapturer) Start(fps int) error                       { return nil }
func (f *fakeCapturer) Next(timeout time.Duration) (*Frame, error) { return nil, nil }
func (f *fakeCapturer) Stop()                                     {}

type errT struct{ s string }

func (e *errT) Error() string { return e.s }

var errBoom = &errT{"boom"}
