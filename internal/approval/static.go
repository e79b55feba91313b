package approval

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
)

// StaticApprover approves requests whose token appears in a fixed list.
// Suitable for lab deployments without an approval service.
type StaticApprover struct {
	tokens []string
}

// NewStaticApprover creates an approver accepting the given tokens.
func NewStaticApprover(tokens []string) *StaticApprover {
	return &StaticApprover{tokens: tokens}
}

// Approve checks the request token against the configured list using
// constant-time comparison.
func (a *StaticApprover) Approve(_ context.Context, req Request) (Decision, error) {
	for _, tok := range a.tokens {
		want := sha256.Sum256([]byte(tok))
		got := sha256.Sum256([]byte(req.Token))
		if subtle.ConstantTimeCompare(want[:], got[:]) == 1 {
			return Decision{
				Approved:   true,
				ApprovalID: fmt.Sprintf("static-%x", want[:6]),
			}, nil
		}
	}
	return Decision{Approved: false, Reason: "unknown approval token"}, nil
}
