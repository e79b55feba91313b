// Package approval validates switch-approval tokens against an external
// approval service or a static token list.
package approval

import (
	"context"
	"fmt"

	"github.com/switchyard-systems/switchyard/pkg/types"
)

// Request carries the context of a backend switch awaiting approval.
type Request struct {
	Token     string         `json:"token"`
	Action    string         `json:"action"`
	RouteKey  types.RouteKey `json:"routeKey"`
	Rationale string         `json:"rationale"`
	Actor     string         `json:"actor"`
}

// Decision is the approver's verdict. A denied request carries a Reason;
// an approved one carries the ApprovalID recorded in the change event.
type Decision struct {
	Approved   bool   `json:"approved"`
	ApprovalID string `json:"approvalId,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Approver validates an approval token for a switch request. An error means
// the approver could not be consulted; the caller must treat that as denial,
// never as a bypass.
type Approver interface {
	Approve(ctx context.Context, req Request) (Decision, error)
}

// FromConfig builds an approver from configuration. A nil config or one with
// neither URL nor tokens yields nil, meaning switches need no approval.
func FromConfig(cfg *types.ApprovalConfig) (Approver, error) {
	if cfg == nil {
		return nil, nil
	}
	switch {
	case cfg.URL != "" && len(cfg.Tokens) > 0:
		return nil, fmt.Errorf("approval config: url and tokens are mutually exclusive")
	case cfg.URL != "":
		return NewHTTPApprover(cfg.URL, cfg.Timeout)
	case len(cfg.Tokens) > 0:
		return NewStaticApprover(cfg.Tokens), nil
	default:
		return nil, nil
	}
}
