package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zarlcorp/zgate/internal/credential"
)

func threeCreds() []credential.Credential {
	return []credential.Credential{
		{Username: "alice", Password: "1"},
		{Username: "bob", Password: "2"},
		{Username: "carol", Password: "3"},
	}
}

func usernamesOf(creds []credential.Credential) string {
	return strings.Join(credential.Usernames(creds), ",")
}

// credential list view tests

func TestCredentialListEmptyState(t *testing.T) {
	m := newCredentialListModel(nil)
	view := m.View()

	if !strings.Contains(view, "no credentials") {
		t.Error("empty list should show 'no credentials'")
	}
	if !strings.Contains(view, "a add") {
		t.Error("empty list should show add hint")
	}
}

func TestCredentialListShowsUsernamesInOrder(t *testing.T) {
	m := newCredentialListModel(threeCreds())
	view := m.View()

	a := strings.Index(view, "alice")
	b := strings.Index(view, "bob")
	c := strings.Index(view, "carol")
	if a < 0 || b < 0 || c < 0 {
		t.Fatalf("view should list all usernames:\n%s", view)
	}
	if !(a < b && b < c) {
		t.Error("usernames should appear in storage order")
	}
	if strings.Contains(view, "credentials (3)") == false {
		t.Error("view should show count")
	}
}

func TestCredentialListNavigation(t *testing.T) {
	m := newCredentialListModel(threeCreds())

	m, _ = m.Update(keyMsg('j'))
	m, _ = m.Update(keyMsg('j'))
	m, _ = m.Update(keyMsg('j'))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", m.cursor)
	}

	m, _ = m.Update(keyMsg('k'))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestCredentialListMoveKeys(t *testing.T) {
	tests := []struct {
		name   string
		cursor int
		key    tea.KeyMsg
		want   *moveCredentialMsg
	}{
		{"J moves down", 0, keyMsg('J'), &moveCredentialMsg{from: 0, to: 1}},
		{"K moves up", 2, keyMsg('K'), &moveCredentialMsg{from: 2, to: 1}},
		{"shift+down", 1, specialKey(tea.KeyShiftDown), &moveCredentialMsg{from: 1, to: 2}},
		{"shift+up", 1, specialKey(tea.KeyShiftUp), &moveCredentialMsg{from: 1, to: 0}},
		{"K at top does nothing", 0, keyMsg('K'), nil},
		{"J at bottom does nothing", 2, keyMsg('J'), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newCredentialListModel(threeCreds()).withCursor(tt.cursor)
			_, cmd := m.Update(tt.key)

			if tt.want == nil {
				if cmd != nil {
					t.Errorf("expected no command, got %v", cmd())
				}
				return
			}

			if cmd == nil {
				t.Fatal("expected move command")
			}
			got, ok := cmd().(moveCredentialMsg)
			if !ok {
				t.Fatalf("expected moveCredentialMsg")
			}
			if got != *tt.want {
				t.Errorf("got %+v, want %+v", got, *tt.want)
			}
		})
	}
}

func TestCredentialListDeleteConfirm(t *testing.T) {
	m := newCredentialListModel(threeCreds()).withCursor(1)

	m, _ = m.Update(keyMsg('d'))
	if !m.confirm {
		t.Fatal("d should ask for confirmation")
	}
	if !strings.Contains(m.View(), `delete credential "bob"?`) {
		t.Error("confirm prompt should name the credential")
	}

	m, cmd := m.Update(keyMsg('y'))
	if m.confirm {
		t.Error("confirm should be cleared")
	}
	if cmd == nil {
		t.Fatal("y should emit delete")
	}
	msg, ok := cmd().(deleteCredentialMsg)
	if !ok || msg.index != 1 {
		t.Errorf("got %+v, want delete index 1", msg)
	}
}

func TestCredentialListDeleteCancel(t *testing.T) {
	m := newCredentialListModel(threeCreds())

	m, _ = m.Update(keyMsg('d'))
	m, cmd := m.Update(keyMsg('n'))

	if m.confirm {
		t.Error("n should cancel")
	}
	if cmd != nil {
		t.Error("cancel should not emit a command")
	}
}

func TestCredentialListDeleteEmptyIgnored(t *testing.T) {
	m := newCredentialListModel(nil)

	m, _ = m.Update(keyMsg('d'))
	if m.confirm {
		t.Error("d on empty list should not confirm")
	}
}

func TestCredentialListAddAndBack(t *testing.T) {
	m := newCredentialListModel(nil)

	_, cmd := m.Update(keyMsg('a'))
	if cmd == nil {
		t.Fatal("a should emit add")
	}
	if _, ok := cmd().(addCredentialMsg); !ok {
		t.Error("expected addCredentialMsg")
	}

	_, cmd = m.Update(escKey())
	if cmd == nil {
		t.Fatal("esc should navigate")
	}
	nav, ok := cmd().(navigateMsg)
	if !ok || nav.view != viewHome {
		t.Errorf("got %+v, want navigate home", nav)
	}
}

func TestWithCursorClamps(t *testing.T) {
	m := newCredentialListModel(threeCreds())

	if got := m.withCursor(10).cursor; got != 2 {
		t.Errorf("withCursor(10) = %d, want 2", got)
	}
	if got := m.withCursor(-1).cursor; got != 0 {
		t.Errorf("withCursor(-1) = %d, want 0", got)
	}
	if got := newCredentialListModel(nil).withCursor(3).cursor; got != 0 {
		t.Errorf("empty withCursor(3) = %d, want 0", got)
	}
}

// credential form tests

func TestCredentialFormRequiresBothFields(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"both empty", "", ""},
		{"no password", "alice", ""},
		{"no username", "", "secret"},
		{"blank username", "   ", "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newCredentialFormModel()
			m.inputs[fieldUsername].SetValue(tt.username)
			m.inputs[fieldPassword].SetValue(tt.password)
			m = m.setFocus(fieldPassword)

			m, cmd := m.Update(enterKey())
			if !strings.Contains(m.flash, "required") {
				t.Errorf("flash = %q, want required", m.flash)
			}
			if cmd == nil {
				t.Fatal("expected flash clear command")
			}
		})
	}
}

func TestCredentialFormSubmit(t *testing.T) {
	m := newCredentialFormModel()
	m.inputs[fieldUsername].SetValue("  alice  ")
	m.inputs[fieldPassword].SetValue(" secret ")

	// enter on username advances to password
	m, _ = m.Update(enterKey())
	if m.focus != fieldPassword {
		t.Fatalf("focus = %d, want password", m.focus)
	}

	_, cmd := m.Update(enterKey())
	if cmd == nil {
		t.Fatal("enter on password should submit")
	}
	msg, ok := cmd().(saveCredentialMsg)
	if !ok {
		t.Fatal("expected saveCredentialMsg")
	}
	want := credential.Credential{Username: "alice", Password: " secret "}
	if msg.credential != want {
		t.Errorf("got %+v, want %+v", msg.credential, want)
	}
}

func TestCredentialFormTabCycles(t *testing.T) {
	m := newCredentialFormModel()

	m, _ = m.Update(tabKey())
	if m.focus != fieldPassword {
		t.Errorf("focus = %d, want password", m.focus)
	}
	m, _ = m.Update(tabKey())
	if m.focus != fieldUsername {
		t.Errorf("focus = %d, want username (wrapped)", m.focus)
	}
}

func TestCredentialFormMasksPassword(t *testing.T) {
	m := newCredentialFormModel()
	m.inputs[fieldPassword].SetValue("hunter2")

	if strings.Contains(m.View(), "hunter2") {
		t.Error("password should be masked")
	}
}

func TestCredentialFormEscCancels(t *testing.T) {
	m := newCredentialFormModel()

	_, cmd := m.Update(escKey())
	if cmd == nil {
		t.Fatal("esc should navigate")
	}
	nav, ok := cmd().(navigateMsg)
	if !ok || nav.view != viewCredentials {
		t.Errorf("got %+v, want navigate credentials", nav)
	}
}

// root credential flow tests

func TestAddCredentialFlow(t *testing.T) {
	m, env := setupModel(t, newFakePortal(), twoCreds()...)

	m = press(t, m, keyMsg('c'))
	m = press(t, m, keyMsg('a'))
	if m.active != viewCredentialForm {
		t.Fatalf("active = %d, want form", m.active)
	}

	m.credentialForm.inputs[fieldUsername].SetValue("carol")
	m.credentialForm.inputs[fieldPassword].SetValue("3")
	m.credentialForm = m.credentialForm.setFocus(fieldPassword)

	m, cmd := update(t, m, enterKey())
	m, _ = update(t, m, cmd())

	if m.active != viewCredentials {
		t.Fatalf("active = %d, want credentials", m.active)
	}
	if got := usernamesOf(env.store.Load()); got != "a,b,carol" {
		t.Errorf("stored = %s", got)
	}
	if m.credentialList.cursor != 2 {
		t.Errorf("cursor = %d, want new entry", m.credentialList.cursor)
	}
	if m.credentialList.flash != "added carol" {
		t.Errorf("flash = %q", m.credentialList.flash)
	}
	if m.creds != 3 {
		t.Errorf("creds = %d, want 3", m.creds)
	}
}

func TestDeleteCredentialFlow(t *testing.T) {
	m, env := setupModel(t, newFakePortal(), threeCreds()...)

	m = press(t, m, keyMsg('c'))
	m = press(t, m, keyMsg('j'))
	m = press(t, m, keyMsg('d'))
	m = press(t, m, keyMsg('y'))

	if got := usernamesOf(env.store.Load()); got != "alice,carol" {
		t.Errorf("stored = %s", got)
	}
	if m.credentialList.flash != "deleted bob" {
		t.Errorf("flash = %q", m.credentialList.flash)
	}
	if m.credentialList.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.credentialList.cursor)
	}
}

func TestDeleteLastCredentialMovesCursorUp(t *testing.T) {
	m, env := setupModel(t, newFakePortal(), twoCreds()...)

	m = press(t, m, keyMsg('c'))
	m = press(t, m, keyMsg('j'))
	m = press(t, m, keyMsg('d'))
	m = press(t, m, keyMsg('y'))

	if got := usernamesOf(env.store.Load()); got != "a" {
		t.Errorf("stored = %s", got)
	}
	if m.credentialList.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.credentialList.cursor)
	}
}

func TestReorderCredentialFlow(t *testing.T) {
	m, env := setupModel(t, newFakePortal(), threeCreds()...)

	m = press(t, m, keyMsg('c'))
	m = press(t, m, keyMsg('J'))
	m = press(t, m, keyMsg('J'))

	if got := usernamesOf(env.store.Load()); got != "bob,carol,alice" {
		t.Errorf("stored = %s", got)
	}
	if m.credentialList.cursor != 2 {
		t.Errorf("cursor = %d, want to follow the moved entry", m.credentialList.cursor)
	}

	m = press(t, m, keyMsg('K'))
	if got := usernamesOf(env.store.Load()); got != "bob,alice,carol" {
		t.Errorf("stored = %s", got)
	}
}

func TestDeleteOutOfRangeFlashes(t *testing.T) {
	m, _ := setupModel(t, newFakePortal(), twoCreds()...)
	m = press(t, m, keyMsg('c'))

	m, _ = update(t, m, deleteCredentialMsg{index: 9})
	if !strings.HasPrefix(m.credentialList.flash, "delete:") {
		t.Errorf("flash = %q", m.credentialList.flash)
	}
}
