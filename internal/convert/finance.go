package convert

import (
	"context"

	"github.com/fairsplit/syncengine/internal/identity"
	"github.com/fairsplit/syncengine/internal/model"
)

// Converters for the financial entities: accounts, bank transactions,
// payments and currency conversions.

func NewAccountConverter(ids identity.Resolver) *Converter[*model.Account, *model.RemoteAccount] {
	return New(model.TypeAccount, ids, accountToRemote, accountFromRemote)
}

func accountToRemote(ctx context.Context, ids identity.Resolver, a *model.Account) (*model.RemoteAccount, error) {
	userID, err := requireRemote(ctx, ids, model.TypeUser, a.UserLocalID, "user_id")
	if err != nil {
		return nil, err
	}
	return &model.RemoteAccount{
		RemoteMeta:  model.RemoteMeta{ID: a.RemoteID, UpdatedAt: a.UpdatedAt},
		UserID:      userID,
		Name:        a.Name,
		IBAN:        a.IBAN,
		Provider:    a.Provider,
		NeedsReauth: a.NeedsReauth,
	}, nil
}

// accountFromRemote preserves CachedLogoPath: the remote shape has no such
// field and a pull must never discard it.
func accountFromRemote(ctx context.Context, ids identity.Resolver, rem *model.RemoteAccount, existing *model.Account) (*model.Account, error) {
	out := &model.Account{}
	var userFallback *int64
	if existing != nil {
		*out = *existing
		userFallback = &existing.UserLocalID
	}
	userLocalID, err := requireLocal(ctx, ids, model.TypeUser, rem.UserID, "user_id", userFallback)
	if err != nil {
		return nil, err
	}
	out.Meta = syncedMeta(&rem.RemoteMeta, out.LocalID)
	out.UserLocalID = userLocalID
	out.Name = rem.Name
	out.IBAN = rem.IBAN
	out.Provider = rem.Provider
	out.NeedsReauth = rem.NeedsReauth
	return out, nil
}

func NewTransactionConverter(ids identity.Resolver) *Converter[*model.Transaction, *model.RemoteTransaction] {
	return New(model.TypeTransaction, ids, transactionToRemote, transactionFromRemote)
}

func transactionToRemote(ctx context.Context, ids identity.Resolver, tx *model.Transaction) (*model.RemoteTransaction, error) {
	accountID, err := requireRemote(ctx, ids, model.TypeAccount, tx.AccountLocalID, "account_id")
	if err != nil {
		return nil, err
	}
	return &model.RemoteTransaction{
		RemoteMeta:  model.RemoteMeta{ID: tx.RemoteID, UpdatedAt: tx.UpdatedAt},
		AccountID:   accountID,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Description: tx.Description,
		BookedAt:    tx.BookedAt,
	}, nil
}

func transactionFromRemote(ctx context.Context, ids identity.Resolver, rem *model.RemoteTransaction, existing *model.Transaction) (*model.Transaction, error) {
	out := &model.Transaction{}
	var accountFallback *int64
	if existing != nil {
		*out = *existing
		accountFallback = &existing.AccountLocalID
	}
	accountLocalID, err := requireLocal(ctx, ids, model.TypeAccount, rem.AccountID, "account_id", accountFallback)
	if err != nil {
		return nil, err
	}
	out.Meta = syncedMeta(&rem.RemoteMeta, out.LocalID)
	out.AccountLocalID = accountLocalID
	out.Amount = rem.Amount
	out.Currency = rem.Currency
	out.Description = rem.Description
	out.BookedAt = rem.BookedAt
	return out, nil
}

func NewPaymentConverter(ids identity.Resolver) *Converter[*model.Payment, *model.RemotePayment] {
	return New(model.TypePayment, ids, paymentToRemote, paymentFromRemote)
}

func paymentToRemote(ctx context.Context, ids identity.Resolver, p *model.Payment) (*model.RemotePayment, error) {
	groupID, err := requireRemote(ctx, ids, model.TypeGroup, p.GroupLocalID, "group_id")
	if err != nil {
		return nil, err
	}
	payerID, err := requireRemote(ctx, ids, model.TypeMember, p.PayerLocalID, "payer_id")
	if err != nil {
		return nil, err
	}
	var transactionID string
	if p.TransactionLocalID != nil {
		transactionID, err = requireRemote(ctx, ids, model.TypeTransaction, *p.TransactionLocalID, "transaction_id")
		if err != nil {
			return nil, err
		}
	}
	return &model.RemotePayment{
		RemoteMeta:    model.RemoteMeta{ID: p.RemoteID, UpdatedAt: p.UpdatedAt},
		GroupID:       groupID,
		PayerID:       payerID,
		TransactionID: transactionID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Note:          p.Note,
		PaidAt:        p.PaidAt,
	}, nil
}

// paymentFromRemote preserves ReceiptPath, which exists only locally.
func paymentFromRemote(ctx context.Context, ids identity.Resolver, rem *model.RemotePayment, existing *model.Payment) (*model.Payment, error) {
	out := &model.Payment{}
	var groupFallback, payerFallback, txFallback *int64
	if existing != nil {
		*out = *existing
		groupFallback = &existing.GroupLocalID
		payerFallback = &existing.PayerLocalID
		txFallback = existing.TransactionLocalID
	}
	groupLocalID, err := requireLocal(ctx, ids, model.TypeGroup, rem.GroupID, "group_id", groupFallback)
	if err != nil {
		return nil, err
	}
	payerLocalID, err := requireLocal(ctx, ids, model.TypeMember, rem.PayerID, "payer_id", payerFallback)
	if err != nil {
		return nil, err
	}
	var transactionLocalID *int64
	if rem.TransactionID != "" {
		txLocal, err := requireLocal(ctx, ids, model.TypeTransaction, rem.TransactionID, "transaction_id", txFallback)
		if err != nil {
			return nil, err
		}
		transactionLocalID = &txLocal
	}
	out.Meta = syncedMeta(&rem.RemoteMeta, out.LocalID)
	out.GroupLocalID = groupLocalID
	out.PayerLocalID = payerLocalID
	out.TransactionLocalID = transactionLocalID
	out.Amount = rem.Amount
	out.Currency = rem.Currency
	out.Note = rem.Note
	out.PaidAt = rem.PaidAt
	return out, nil
}

func NewConversionConverter(ids identity.Resolver) *Converter[*model.Conversion, *model.RemoteConversion] {
	return New(model.TypeConversion, ids, conversionToRemote, conversionFromRemote)
}

func conversionToRemote(ctx context.Context, ids identity.Resolver, c *model.Conversion) (*model.RemoteConversion, error) {
	paymentID, err := requireRemote(ctx, ids, model.TypePayment, c.PaymentLocalID, "payment_id")
	if err != nil {
		return nil, err
	}
	return &model.RemoteConversion{
		RemoteMeta: model.RemoteMeta{ID: c.RemoteID, UpdatedAt: c.UpdatedAt},
		PaymentID:  paymentID,
		Rate:       c.Rate,
		Amount:     c.Amount,
		Currency:   c.Currency,
		RatedAt:    c.RatedAt,
	}, nil
}

func conversionFromRemote(ctx context.Context, ids identity.Resolver, rem *model.RemoteConversion, existing *model.Conversion) (*model.Conversion, error) {
	out := &model.Conversion{}
	var paymentFallback *int64
	if existing != nil {
		*out = *existing
		paymentFallback = &existing.PaymentLocalID
	}
	paymentLocalID, err := requireLocal(ctx, ids, model.TypePayment, rem.PaymentID, "payment_id", paymentFallback)
	if err != nil {
		return nil, err
	}
	out.Meta = syncedMeta(&rem.RemoteMeta, out.LocalID)
	out.PaymentLocalID = paymentLocalID
	out.Rate = rem.Rate
	out.Amount = rem.Amount
	out.Currency = rem.Currency
	out.RatedAt = rem.RatedAt
	return out, nil
}
