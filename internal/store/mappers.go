package store

import (
	"github.com/fairsplit/syncengine/internal/model"
)

// Per-entity mappers. Each pairs a table with the closures the generic
// store needs to read and write its entity-specific columns.

func NewUserStore(pool PgxIface) *Pg[model.User, *model.User] {
	return NewPg[model.User](pool, Mapper[*model.User]{
		Table:   "users",
		Columns: []string{"name", "email"},
		Values:  func(u *model.User) []any { return []any{u.Name, u.Email} },
		Fields:  func(u *model.User) []any { return []any{&u.Name, &u.Email} },
	})
}

func NewGroupStore(pool PgxIface) *Pg[model.Group, *model.Group] {
	return NewPg[model.Group](pool, Mapper[*model.Group]{
		Table:   "groups",
		Columns: []string{"name", "currency", "invite_code"},
		Values:  func(g *model.Group) []any { return []any{g.Name, g.Currency, g.InviteCode} },
		Fields:  func(g *model.Group) []any { return []any{&g.Name, &g.Currency, &g.InviteCode} },
	})
}

func NewPreferenceStore(pool PgxIface) *Pg[model.Preference, *model.Preference] {
	return NewPg[model.Preference](pool, Mapper[*model.Preference]{
		Table:   "preferences",
		Columns: []string{"user_local_id", "locale", "hide_balances"},
		Values: func(p *model.Preference) []any {
			return []any{p.UserLocalID, p.Locale, p.HideBalances}
		},
		Fields: func(p *model.Preference) []any {
			return []any{&p.UserLocalID, &p.Locale, &p.HideBalances}
		},
	})
}

func NewMemberStore(pool PgxIface) *Pg[model.Member, *model.Member] {
	return NewPg[model.Member](pool, Mapper[*model.Member]{
		Table:   "members",
		Columns: []string{"group_local_id", "user_local_id", "role", "joined_at"},
		Values: func(m *model.Member) []any {
			return []any{m.GroupLocalID, m.UserLocalID, m.Role, m.JoinedAt}
		},
		Fields: func(m *model.Member) []any {
			return []any{&m.GroupLocalID, &m.UserLocalID, &m.Role, &m.JoinedAt}
		},
	})
}

func NewAccountStore(pool PgxIface) *Pg[model.Account, *model.Account] {
	return NewPg[model.Account](pool, Mapper[*model.Account]{
		Table: "accounts",
		Columns: []string{
			"user_local_id", "name", "iban", "provider", "needs_reauth", "cached_logo_path",
		},
		Values: func(a *model.Account) []any {
			return []any{a.UserLocalID, a.Name, a.IBAN, a.Provider, a.NeedsReauth, a.CachedLogoPath}
		},
		Fields: func(a *model.Account) []any {
			return []any{&a.UserLocalID, &a.Name, &a.IBAN, &a.Provider, &a.NeedsReauth, &a.CachedLogoPath}
		},
	})
}

func NewTransactionStore(pool PgxIface) *Pg[model.Transaction, *model.Transaction] {
	return NewPg[model.Transaction](pool, Mapper[*model.Transaction]{
		Table:   "transactions",
		Columns: []string{"account_local_id", "amount", "currency", "description", "booked_at"},
		Values: func(t *model.Transaction) []any {
			return []any{t.AccountLocalID, t.Amount, t.Currency, t.Description, t.BookedAt}
		},
		Fields: func(t *model.Transaction) []any {
			return []any{&t.AccountLocalID, &t.Amount, &t.Currency, &t.Description, &t.BookedAt}
		},
	})
}

func NewPaymentStore(pool PgxIface) *Pg[model.Payment, *model.Payment] {
	return NewPg[model.Payment](pool, Mapper[*model.Payment]{
		Table: "payments",
		Columns: []string{
			"group_local_id", "payer_local_id", "transaction_local_id",
			"amount", "currency", "note", "paid_at", "receipt_path",
		},
		Values: func(p *model.Payment) []any {
			return []any{
				p.GroupLocalID, p.PayerLocalID, p.TransactionLocalID,
				p.Amount, p.Currency, p.Note, p.PaidAt, p.ReceiptPath,
			}
		},
		Fields: func(p *model.Payment) []any {
			return []any{
				&p.GroupLocalID, &p.PayerLocalID, &p.TransactionLocalID,
				&p.Amount, &p.Currency, &p.Note, &p.PaidAt, &p.ReceiptPath,
			}
		},
	})
}

func NewConversionStore(pool PgxIface) *Pg[model.Conversion, *model.Conversion] {
	return NewPg[model.Conversion](pool, Mapper[*model.Conversion]{
		Table:   "conversions",
		Columns: []string{"payment_local_id", "rate", "amount", "currency", "rated_at"},
		Values: func(c *model.Conversion) []any {
			return []any{c.PaymentLocalID, c.Rate, c.Amount, c.Currency, c.RatedAt}
		},
		Fields: func(c *model.Conversion) []any {
			return []any{&c.PaymentLocalID, &c.Rate, &c.Amount, &c.Currency, &c.RatedAt}
		},
	})
}
