package httpx

import "testing"

func TestValidateRegistration(t *testing.T) {
	cases := []struct {
		name     string
		userName string
		email    string
		password string
		want     []string
	}{
		{
			name:     "valid",
			userName: "Alice",
			email:    "a@x.com",
			password: "ab12cd",
			want:     nil,
		},
		{
			name:     "missing name",
			userName: "   ",
			email:    "a@x.com",
			password: "ab12cd",
			want:     []string{"please enter a name"},
		},
		{
			name:     "bad email",
			userName: "Alice",
			email:    "nope",
			password: "ab12cd",
			want:     []string{"please provide a valid email"},
		},
		{
			name:     "short password",
			userName: "Alice",
			email:    "a@x.com",
			password: "a1b2",
			want:     []string{"password must be at least 6 characters"},
		},
		{
			name:     "too few digits",
			userName: "Alice",
			email:    "a@x.com",
			password: "abcdef1",
			want:     []string{"must contain at least two numbers"},
		},
		{
			name:     "everything wrong",
			userName: "",
			email:    "@@",
			password: "x",
			want: []string{
				"please enter a name",
				"please provide a valid email",
				"password must be at least 6 characters",
				"must contain at least two numbers",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := validateRegistration(tc.userName, tc.email, tc.password)
			assertMessages(t, got, tc.want)
		})
	}
}

func TestValidateLogin(t *testing.T) {
	cases := []struct {
		name     string
		email    string
		password string
		want     []string
	}{
		{name: "valid", email: "a@x.com", password: "secret", want: nil},
		{name: "bad email", email: "nope", password: "secret", want: []string{"please enter a valid email"}},
		{name: "missing password", email: "a@x.com", password: "", want: []string{"please enter your password"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := validateLogin(tc.email, tc.password)
			assertMessages(t, got, tc.want)
		})
	}
}

func TestValidEmailRejectsDisplayNames(t *testing.T) {
	// mail.ParseAddress accepts "Alice <a@x.com>"; the API should not.
	if validEmail("Alice <a@x.com>") {
		t.Fatal("display-name address accepted")
	}
	if !validEmail("a@x.com") {
		t.Fatal("plain address rejected")
	}
}

func assertMessages(t *testing.T, got []fieldError, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d errors, got %+v", len(want), got)
	}
	for i, msg := range want {
		if got[i].Msg != msg {
			t.Fatalf("error %d: expected %q, got %q", i, msg, got[i].Msg)
		}
	}
}
