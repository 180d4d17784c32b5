package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditOp is the kind of state-changing operation being recorded.
type AuditOp string

const (
	AuditOpGrantRole      AuditOp = "GRANT_ROLE"
	AuditOpRevokeRole     AuditOp = "REVOKE_ROLE"
	AuditOpWhitelist      AuditOp = "WHITELIST"
	AuditOpSetFee         AuditOp = "SET_FEE"
	AuditOpPause          AuditOp = "PAUSE"
	AuditOpUnpause        AuditOp = "UNPAUSE"
	AuditOpInvoiceCreate  AuditOp = "INVOICE_CREATE"
	AuditOpInvoiceCancel  AuditOp = "INVOICE_CANCEL"
	AuditOpInvoiceExpire  AuditOp = "INVOICE_EXPIRE"
	AuditOpPayment        AuditOp = "PAYMENT"
	AuditOpRefund         AuditOp = "REFUND"
	AuditOpWithdrawal     AuditOp = "WITHDRAWAL"
	AuditOpTreasurySweep  AuditOp = "TREASURY_SWEEP"
	AuditOpTreasuryWallet AuditOp = "TREASURY_WALLET"
	AuditOpRegister       AuditOp = "REGISTER"
	AuditOpLogin          AuditOp = "LOGIN"
)

// AuditEntry is the immutable record every state-changing operation
// emits: operation kind, primary entity, actor, asset/amount, timestamp.
// It doubles as the emitted event payload.
type AuditEntry struct {
	ID        uuid.UUID  `json:"id"`
	Op        AuditOp    `json:"op"`
	EntityID  string     `json:"entity_id"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty"`
	Asset     string     `json:"asset,omitempty"`
	Amount    int64      `json:"amount,omitempty"`
	Details   string     `json:"details,omitempty"` // JSON string
	CreatedAt time.Time  `json:"created_at"`
}
