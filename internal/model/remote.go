package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Remote models are the shapes exchanged with the remote store. Foreign keys
// are remote ids; purely-local fields (cached file paths) do not appear.

type RemoteUser struct {
	RemoteMeta
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RemoteGroup struct {
	RemoteMeta
	Name       string `json:"name"`
	Currency   string `json:"currency"`
	InviteCode string `json:"invite_code,omitempty"`
}

type RemotePreference struct {
	RemoteMeta
	UserID       string `json:"user_id"`
	Locale       string `json:"locale"`
	HideBalances bool   `json:"hide_balances"`
}

type RemoteMember struct {
	RemoteMeta
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type RemoteAccount struct {
	RemoteMeta
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	IBAN        string `json:"iban"`
	Provider    string `json:"provider"`
	NeedsReauth bool   `json:"needs_reauth"`
}

type RemoteTransaction struct {
	RemoteMeta
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description,omitempty"`
	BookedAt    time.Time       `json:"booked_at"`
}

type RemotePayment struct {
	RemoteMeta
	GroupID       string          `json:"group_id"`
	PayerID       string          `json:"payer_id"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Note          string          `json:"note,omitempty"`
	PaidAt        time.Time       `json:"paid_at"`
}

type RemoteConversion struct {
	RemoteMeta
	PaymentID string          `json:"payment_id"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	RatedAt   time.Time       `json:"rated_at"`
}
