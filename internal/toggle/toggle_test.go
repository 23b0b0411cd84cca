package toggle

import (
	"errors"
	"testing"

	"github.com/ayusman/peekaboo/internal/catalog"
)

const esc = 27

var kinds = []catalog.Kind{"face", "eye", "nose", "mouth"}

func newTestController(t *testing.T) *Controller {
	t.Helper()
	bindings := make([]Binding, len(kinds))
	for i, k := range kinds {
		bindings[i] = Binding{Key: '1' + i, Kind: k}
	}
	c, err := NewController(bindings, esc)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	return c
}

func TestController_InitiallyDisabled(t *testing.T) {
	c := newTestController(t)
	s := c.State()
	for _, k := range kinds {
		if s.Enabled(k) {
			t.Errorf("%s enabled initially", k)
		}
	}
}

func TestController_ToggleTwiceRestores(t *testing.T) {
	for i, k := range kinds {
		t.Run(string(k), func(t *testing.T) {
			c := newTestController(t)
			key := '1' + i

			a := c.Handle(key, true)
			if a.Type != ActionToggled || a.Kind != k || !a.Enabled {
				t.Fatalf("first Handle() = %+v", a)
			}
			if !c.State().Enabled(k) {
				t.Fatalf("%s should be enabled", k)
			}

			a = c.Handle(key, true)
			if a.Type != ActionToggled || a.Enabled {
				t.Fatalf("second Handle() = %+v", a)
			}
			if c.State().Enabled(k) {
				t.Errorf("%s should be disabled after two toggles", k)
			}
		})
	}
}

func TestController_KindsIndependent(t *testing.T) {
	c := newTestController(t)

	c.Handle('2', true)
	s := c.State()

	if !s.Enabled("eye") {
		t.Error("eye should be enabled")
	}
	for _, k := range []catalog.Kind{"face", "nose", "mouth"} {
		if s.Enabled(k) {
			t.Errorf("%s changed when eye was toggled", k)
		}
	}

	c.Handle('3', true)
	s = c.State()
	if !s.Enabled("eye") || !s.Enabled("nose") {
		t.Errorf("eye=%v nose=%v, want both enabled", s.Enabled("eye"), s.Enabled("nose"))
	}
}

func TestController_QuitLeavesState(t *testing.T) {
	c := newTestController(t)
	c.Handle('1', true)

	a := c.Handle(esc, true)
	if a.Type != ActionQuit {
		t.Fatalf("Handle(esc) = %v, want quit", a.Type)
	}
	if !c.State().Enabled("face") {
		t.Error("quit altered state")
	}
}

func TestController_IgnoresUnboundAndNoKey(t *testing.T) {
	c := newTestController(t)

	if a := c.Handle('9', true); a.Type != ActionNone {
		t.Errorf("Handle(unbound) = %v, want none", a.Type)
	}
	if a := c.Handle('1', false); a.Type != ActionNone {
		t.Errorf("Handle(no key) = %v, want none", a.Type)
	}
	if got := c.State().EnabledKinds(kinds); len(got) != 0 {
		t.Errorf("EnabledKinds() = %v, want none", got)
	}
}

func TestNewController_Conflicts(t *testing.T) {
	tests := []struct {
		name     string
		bindings []Binding
	}{
		{
			name:     "duplicate key",
			bindings: []Binding{{Key: 'a', Kind: "face"}, {Key: 'a', Kind: "eye"}},
		},
		{
			name:     "quit key",
			bindings: []Binding{{Key: esc, Kind: "face"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewController(tt.bindings, esc); !errors.Is(err, ErrDuplicateKey) {
				t.Errorf("NewController() error = %v, want ErrDuplicateKey", err)
			}
		})
	}
}

func TestState_CopiesIndependent(t *testing.T) {
	c := newTestController(t)

	snapshot := c.State()
	c.Handle('1', true)

	if snapshot.Enabled("face") {
		t.Error("snapshot changed after controller toggle")
	}

	toggled := snapshot.Toggle("eye")
	if snapshot.Enabled("eye") || !toggled.Enabled("eye") {
		t.Error("Toggle() must not modify the receiver")
	}

	set := toggled.Set("eye", false)
	if set.Enabled("eye") || !toggled.Enabled("eye") {
		t.Error("Set() must not modify the receiver")
	}
}

func TestState_EnabledKindsOrder(t *testing.T) {
	s := NewState(kinds).Set("mouth", true).Set("face", true)

	got := s.EnabledKinds(kinds)
	if len(got) != 2 || got[0] != "face" || got[1] != "mouth" {
		t.Errorf("EnabledKinds() = %v, want [face mouth]", got)
	}
}

func TestFromCatalog(t *testing.T) {
	cat := catalog.New([]catalog.Entry{
		{Kind: "face", Key: 'f'},
		{Kind: "eye", Key: 'e'},
	})

	c, err := FromCatalog(cat, 'q')
	if err != nil {
		t.Fatalf("FromCatalog() error = %v", err)
	}

	if a := c.Handle('e', true); a.Type != ActionToggled || a.Kind != "eye" {
		t.Errorf("Handle(e) = %+v, want eye toggled", a)
	}
	if a := c.Handle('q', true); a.Type != ActionQuit {
		t.Errorf("Handle(q) = %v, want quit", a.Type)
	}
}
