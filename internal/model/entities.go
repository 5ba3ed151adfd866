package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is an application account holder.
type User struct {
	Meta
	Name  string
	Email string
}

// Group is a shared-expense circle. Groups carry no foreign keys so they
// sync in the first tier alongside users.
type Group struct {
	Meta
	Name       string
	Currency   string
	InviteCode string
}

// Preference holds per-user settings.
type Preference struct {
	Meta
	UserLocalID  int64 // -> User
	Locale       string
	HideBalances bool
}

// Member links a user into a group.
type Member struct {
	Meta
	GroupLocalID int64 // -> Group
	UserLocalID  int64 // -> User
	Role         string
	JoinedAt     time.Time
}

// Account is an external bank account linked by a user.
//
// NeedsReauth records a locally-observed condition (the bank connection
// demanded re-authentication). A true value must never be lost to a stale
// remote false, so conflict resolution OR-combines it across versions.
// CachedLogoPath is purely local and never leaves the device.
type Account struct {
	Meta
	UserLocalID    int64 // -> User
	Name           string
	IBAN           string
	Provider       string
	NeedsReauth    bool
	CachedLogoPath string
}

// Transaction is a booked bank transaction on an account.
type Transaction struct {
	Meta
	AccountLocalID int64 // -> Account
	Amount         decimal.Decimal
	Currency       string
	Description    string
	BookedAt       time.Time
}

// Payment is an expense recorded in a group. TransactionLocalID is optional;
// a payment may or may not be backed by a bank transaction. ReceiptPath is
// purely local.
type Payment struct {
	Meta
	GroupLocalID       int64  // -> Group
	PayerLocalID       int64  // -> Member
	TransactionLocalID *int64 // -> Transaction, optional
	Amount             decimal.Decimal
	Currency           string
	Note               string
	PaidAt             time.Time
	ReceiptPath        string
}

// Conversion is a currency conversion applied to a payment whose currency
// differs from the group currency.
type Conversion struct {
	Meta
	PaymentLocalID int64 // -> Payment
	Rate           decimal.Decimal
	Amount         decimal.Decimal
	Currency       string
	RatedAt        time.Time
}
