package invite

import (
	"net/url"
	"testing"

	"github.com/google/uuid"
)

func TestParseRefShapes(t *testing.T) {
	clientID := uuid.New()

	tests := []struct {
		name  string
		query string
		want  Ref
		ok    bool
	}{
		{
			name:  "token",
			query: "token=abc123",
			want:  Ref{Kind: KindToken, Token: "abc123"},
			ok:    true,
		},
		{
			name:  "project code",
			query: "invite=launch-film",
			want:  Ref{Kind: KindProjectCode, Code: "launch-film"},
			ok:    true,
		},
		{
			name:  "client code with variable",
			query: "client_invite=" + clientID.String() + "&variable=studio-vip",
			want:  Ref{Kind: KindClientCode, ClientID: clientID, Code: "studio-vip"},
			ok:    true,
		},
		{
			name:  "client code without variable",
			query: "client_invite=" + clientID.String(),
			want:  Ref{Kind: KindClientCode, ClientID: clientID},
			ok:    true,
		},
		{
			name:  "malformed client id",
			query: "client_invite=not-a-uuid&variable=x",
			ok:    false,
		},
		{
			name:  "nothing",
			query: "foo=bar",
			ok:    false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			got, ok := ParseRef(q)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if ok && got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestParseRefFirstMatchWins(t *testing.T) {
	q := url.Values{}
	q.Set("token", "tok")
	q.Set("invite", "proj-code")
	q.Set("client_invite", uuid.NewString())

	ref, ok := ParseRef(q)
	if !ok || ref.Kind != KindToken {
		t.Fatalf("token must win over code shapes, got %+v", ref)
	}

	q.Del("token")
	ref, ok = ParseRef(q)
	if !ok || ref.Kind != KindProjectCode {
		t.Fatalf("project code must win over client code, got %+v", ref)
	}
}
