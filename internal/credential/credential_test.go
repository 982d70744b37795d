package credential

import (
	"encoding/json"
	"testing"
)

func TestJSONShape(t *testing.T) {
	c := Credential{Username: "alice", Password: "s3cret"}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"username":"alice","password":"s3cret"}`
	if string(data) != want {
		t.Errorf("json: got %s, want %s", data, want)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		c    Credential
		want bool
	}{
		{"username and password", Credential{Username: "a", Password: "1"}, true},
		{"empty password", Credential{Username: "a"}, true},
		{"empty username", Credential{Password: "1"}, false},
		{"blank username", Credential{Username: "   ", Password: "1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUsernames(t *testing.T) {
	creds := []Credential{{Username: "a"}, {Username: "b"}, {Username: "a"}}
	got := Usernames(creds)

	want := []string{"a", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("len: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("usernames[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFind(t *testing.T) {
	creds := []Credential{{Username: "a"}, {Username: "b"}, {Username: "b"}}

	if got := Find(creds, "b"); got != 1 {
		t.Errorf("Find(b) = %d, want 1", got)
	}
	if got := Find(creds, "z"); got != -1 {
		t.Errorf("Find(z) = %d, want -1", got)
	}
	if got := Find(nil, "a"); got != -1 {
		t.Errorf("Find on nil = %d, want -1", got)
	}
}
