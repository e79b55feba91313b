package dynamo

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/switchyard-systems/switchyard/pkg/types"
)

// PK/SK prefix constants.
const (
	prefixRoute = "ROUTE#"
	prefixAudit = "AUDIT#"
	prefixType  = "TYPE#"

	skConfig = "CONFIG"

	gsiRoutePK = prefixType + "route"
)

func routePK(key types.RouteKey) string {
	return prefixRoute + key.WithDefaults().String()
}

func configSK() string { return skConfig }

// auditSK orders audit records by millisecond timestamp with a random nonce
// so two records in the same millisecond never collide.
func auditSK(ts time.Time) string {
	nonce := make([]byte, 4)
	_, _ = rand.Read(nonce)
	return fmt.Sprintf("%s%013d#%s", prefixAudit, ts.UnixMilli(), hex.EncodeToString(nonce))
}
