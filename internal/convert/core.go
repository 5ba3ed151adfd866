package convert

import (
	"context"

	"github.com/fairsplit/syncengine/internal/identity"
	"github.com/fairsplit/syncengine/internal/model"
)

// Converters for the dependency-free tier (users, groups) and the entities
// hanging directly off them (preferences, members).

func NewUserConverter(ids identity.Resolver) *Converter[*model.User, *model.RemoteUser] {
	return New(model.TypeUser, ids, userToRemote, userFromRemote)
}

func userToRemote(_ context.Context, _ identity.Resolver, u *model.User) (*model.RemoteUser, error) {
	return &model.RemoteUser{
		RemoteMeta: model.RemoteMeta{ID: u.RemoteID, UpdatedAt: u.UpdatedAt},
		Name:       u.Name,
		Email:      u.Email,
	}, nil
}

func userFromRemote(_ context.Context, _ identity.Resolver, rem *model.RemoteUser, existing *model.User) (*model.User, error) {
	out := &model.User{}
	if existing != nil {
		*out = *existing
	}
	out.Meta = syncedMeta(&rem.RemoteMeta, out.LocalID)
	out.Name = rem.Name
	out.Email = rem.Email
	return out, nil
}

func NewGroupConverter(ids identity.Resolver) *Converter[*model.Group, *model.RemoteGroup] {
	return New(model.TypeGroup, ids, groupToRemote, groupFromRemote)
}

func groupToRemote(_ context.Context, _ identity.Resolver, g *model.Group) (*model.RemoteGroup, error) {
	return &model.RemoteGroup{
		RemoteMeta: model.RemoteMeta{ID: g.RemoteID, UpdatedAt: g.UpdatedAt},
		Name:       g.Name,
		Currency:   g.Currency,
		InviteCode: g.InviteCode,
	}, nil
}

func groupFromRemote(_ context.Context, _ identity.Resolver, rem *model.RemoteGroup, existing *model.Group) (*model.Group, error) {
	out := &model.Group{}
	if existing != nil {
		*out = *existing
	}
	out.Meta = syncedMeta(&rem.RemoteMeta, out.LocalID)
	out.Name = rem.Name
	out.Currency = rem.Currency
	out.InviteCode = rem.InviteCode
	return out, nil
}

func NewPreferenceConverter(ids identity.Resolver) *Converter[*model.Preference, *model.RemotePreference] {
	return New(model.TypePreference, ids, preferenceToRemote, preferenceFromRemote)
}

func preferenceToRemote(ctx context.Context, ids identity.Resolver, p *model.Preference) (*model.RemotePreference, error) {
	userID, err := requireRemote(ctx, ids, model.TypeUser, p.UserLocalID, "user_id")
	if err != nil {
		return nil, err
	}
	return &model.RemotePreference{
		RemoteMeta:   model.RemoteMeta{ID: p.RemoteID, UpdatedAt: p.UpdatedAt},
		UserID:       userID,
		Locale:       p.Locale,
		HideBalances: p.HideBalances,
	}, nil
}

func preferenceFromRemote(ctx context.Context, ids identity.Resolver, rem *model.RemotePreference, existing *model.Preference) (*model.Preference, error) {
	out := &model.Preference{}
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
	out.Locale = rem.Locale
	out.HideBalances = rem.HideBalances
	return out, nil
}

func NewMemberConverter(ids identity.Resolver) *Converter[*model.Member, *model.RemoteMember] {
	return New(model.TypeMember, ids, memberToRemote, memberFromRemote)
}

func memberToRemote(ctx context.Context, ids identity.Resolver, m *model.Member) (*model.RemoteMember, error) {
	groupID, err := requireRemote(ctx, ids, model.TypeGroup, m.GroupLocalID, "group_id")
	if err != nil {
		return nil, err
	}
	userID, err := requireRemote(ctx, ids, model.TypeUser, m.UserLocalID, "user_id")
	if err != nil {
		return nil, err
	}
	return &model.RemoteMember{
		RemoteMeta: model.RemoteMeta{ID: m.RemoteID, UpdatedAt: m.UpdatedAt},
		GroupID:    groupID,
		UserID:     userID,
		Role:       m.Role,
		JoinedAt:   m.JoinedAt,
	}, nil
}

func memberFromRemote(ctx context.Context, ids identity.Resolver, rem *model.RemoteMember, existing *model.Member) (*model.Member, error) {
	out := &model.Member{}
	var groupFallback, userFallback *int64
	if existing != nil {
		*out = *existing
		groupFallback = &existing.GroupLocalID
		userFallback = &existing.UserLocalID
	}
	groupLocalID, err := requireLocal(ctx, ids, model.TypeGroup, rem.GroupID, "group_id", groupFallback)
	if err != nil {
		return nil, err
	}
	userLocalID, err := requireLocal(ctx, ids, model.TypeUser, rem.UserID, "user_id", userFallback)
	if err != nil {
		return nil, err
	}
	out.Meta = syncedMeta(&rem.RemoteMeta, out.LocalID)
	out.GroupLocalID = groupLocalID
	out.UserLocalID = userLocalID
	out.Role = rem.Role
	out.JoinedAt = rem.JoinedAt
	return out, nil
}
