package app

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/sapprep/internal/router"
	"github.com/abhisek/sapprep/internal/screen"
)

type stubScreen struct {
	title     string
	keepEsc   bool
	inits     int
	lastKey   string
	statusTxt string
}

func (s *stubScreen) Init() tea.Cmd { s.inits++; return nil }
func (s *stubScreen) Title() string { return s.title }
func (s *stubScreen) View(width, height int) string {
	return "content of " + s.title
}
func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		s.lastKey = k.String()
	}
	return s, nil
}
func (s *stubScreen) HandlesEscape() bool { return s.keepEsc }
func (s *stubScreen) Status() string      { return s.statusTxt }

func TestAppModel_EscPopsWhenNested(t *testing.T) {
	root := &stubScreen{title: "Home"}
	child := &stubScreen{title: "Child"}
	m := newAppModel(root, child)

	if root.inits != 1 || child.inits != 1 {
		t.Fatalf("inits = %d/%d, want 1/1", root.inits, child.inits)
	}

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Errorf("expected PopScreenMsg, got %T", cmd())
	}
	if child.lastKey != "" {
		t.Error("Esc should not reach the screen")
	}
}

func TestAppModel_EscAtRootIsIgnored(t *testing.T) {
	root := &stubScreen{title: "Home"}
	m := newAppModel(root)

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd != nil {
		t.Error("expected no command at root")
	}
}

func TestAppModel_EscapeHandlerKeepsEsc(t *testing.T) {
	root := &stubScreen{title: "Home"}
	child := &stubScreen{title: "Exam", keepEsc: true}
	m := newAppModel(root, child)

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd != nil {
		t.Error("expected the screen to handle Esc")
	}
	if child.lastKey != "esc" {
		t.Errorf("lastKey = %q, want esc", child.lastKey)
	}
}

func TestAppModel_Render(t *testing.T) {
	root := &stubScreen{title: "Home", statusTxt: "readiness 42%"}
	var model tea.Model = newAppModel(root)

	model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m := model.(AppModel)
	if !m.View().AltScreen {
		t.Error("expected alt screen")
	}
	out := m.render()
	for _, want := range []string{"content of Home", "readiness 42%", "Ctrl+C"} {
		if !strings.Contains(out, want) {
			t.Errorf("frame missing %q", want)
		}
	}
}

func TestAppModel_FooterHints(t *testing.T) {
	root := &stubScreen{title: "Home"}
	m := newAppModel(root)
	if got := m.footerHints(root); got[0].Key != "↑↓" {
		t.Errorf("root hints = %+v", got)
	}

	child := &stubScreen{title: "Child"}
	m = newAppModel(root, child)
	if got := m.footerHints(child); got[0].Key != "Esc" {
		t.Errorf("nested hints = %+v", got)
	}
}

func TestAppModel_CtrlCQuits(t *testing.T) {
	m := newAppModel(&stubScreen{title: "Home"})
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected QuitMsg, got %T", cmd())
	}
}
