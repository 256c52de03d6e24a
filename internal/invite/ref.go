// internal/invite/ref.go
package invite

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// RefKind discriminates the three invite shapes the URL surface carries.
type RefKind int

const (
	KindToken       RefKind = iota + 1 // single-use invitation token
	KindProjectCode                    // durable code scoped to one project
	KindClientCode                     // durable code scoped to a whole account
)

// Ref is the decoded invite reference. It is parsed once at the boundary;
// downstream code branches on Kind and never re-inspects raw strings.
type Ref struct {
	Kind     RefKind
	Token    string    // KindToken
	Code     string    // KindProjectCode, KindClientCode
	ClientID uuid.UUID // KindClientCode
}

// ParseRef extracts an invite reference from request query parameters.
// Recognized parameters, first match wins:
//
//	token=<invitation token>
//	invite=<project access code>
//	client_invite=<client id>&variable=<access code>
func ParseRef(q url.Values) (Ref, bool) {
	if t := strings.TrimSpace(q.Get("token")); t != "" {
		return Ref{Kind: KindToken, Token: t}, true
	}
	if c := strings.TrimSpace(q.Get("invite")); c != "" {
		return Ref{Kind: KindProjectCode, Code: c}, true
	}
	if ci := strings.TrimSpace(q.Get("client_invite")); ci != "" {
		id, err := uuid.Parse(ci)
		if err != nil {
			return Ref{}, false
		}
		return Ref{
			Kind:     KindClientCode,
			ClientID: id,
			Code:     strings.TrimSpace(q.Get("variable")),
		}, true
	}
	return Ref{}, false
}
