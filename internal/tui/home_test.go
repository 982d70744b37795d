package tui

import (
	"strings"
	"testing"
	"time"
)

func TestHomeShortcuts(t *testing.T) {
	tests := []struct {
		key  rune
		want any
	}{
		{'l', actionMsg{action: actLogin}},
		{'o', actionMsg{action: actLogout}},
		{'r', actionMsg{action: actRelogin}},
		{'a', actionMsg{action: actKeepAlive}},
		{'c', navigateMsg{view: viewCredentials}},
		{'s', navigateMsg{view: viewSettings}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			m := newHomeModel("dev")
			_, cmd := m.Update(keyMsg(tt.key))
			if cmd == nil {
				t.Fatal("expected command")
			}
			if got := cmd(); got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestHomeMenuNavigation(t *testing.T) {
	m := newHomeModel("dev")

	for range len(homeItems) + 2 {
		m, _ = m.Update(keyMsg('j'))
	}
	if m.cursor != len(homeItems)-1 {
		t.Errorf("cursor = %d, want last item", m.cursor)
	}

	m, _ = m.Update(keyMsg('k'))
	if m.cursor != len(homeItems)-2 {
		t.Errorf("cursor = %d", m.cursor)
	}
}

func TestHomeEnterOnQuit(t *testing.T) {
	m := newHomeModel("dev")
	m.cursor = int(actQuit)

	_, cmd := m.Update(enterKey())
	if cmd == nil {
		t.Fatal("enter on quit should quit")
	}
}

func TestHomeStatusLines(t *testing.T) {
	m := newHomeModel("dev")

	tests := []struct {
		name string
		st   status
		want string
	}{
		{"idle", status{}, "idle"},
		{"busy", status{busy: true, user: "a"}, "working..."},
		{"connected", status{user: "a", since: testNow, now: testNow.Add(3*time.Hour + 2*time.Second)}, "connected as a"},
		{"running time", status{user: "a", since: testNow, now: testNow.Add(3*time.Hour + 2*time.Second)}, "03:00:02"},
		{"keep-alive off", status{}, "Keep-alive (off)"},
		{"keep-alive on", status{keepAlive: true, interval: 2 * time.Minute}, "Keep-alive (on, every 2m0s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if view := m.View(tt.st); !strings.Contains(view, tt.want) {
				t.Errorf("view should contain %q", tt.want)
			}
		})
	}
}

func TestRenderLogShowsNewestEntries(t *testing.T) {
	var entries []logEntry
	for i := range maxLogLines + 3 {
		entries = append(entries, logEntry{
			at:   testNow.Add(time.Duration(i) * time.Second),
			text: "entry-" + string(rune('a'+i)),
		})
	}

	out := renderLog(entries)

	if strings.Contains(out, "entry-a") {
		t.Error("oldest entries should scroll off")
	}
	if !strings.Contains(out, "entry-"+string(rune('a'+maxLogLines+2))) {
		t.Error("newest entry should be shown")
	}
	if !strings.Contains(out, "09:26:56") {
		t.Error("entries should carry a timestamp")
	}
}

func TestFormatRunning(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-time.Second, "00:00:00"},
		{59*time.Second + 900*time.Millisecond, "00:00:59"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
		{26 * time.Hour, "26:00:00"},
	}

	for _, tt := range tests {
		if got := formatRunning(tt.d); got != tt.want {
			t.Errorf("formatRunning(%s) = %s, want %s", tt.d, got, tt.want)
		}
	}
}
