package remote

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fairsplit/syncengine/internal/model"
)

// Coalescer suppresses duplicate in-flight requests for the same logical
// resource: two near-simultaneous refreshes of the same account issue one
// remote call and share its result. Keys are evicted the moment the shared
// call completes, so the next request goes out fresh.
type Coalescer[R model.Remote] struct {
	typ   model.EntityType
	api   API[R]
	group singleflight.Group
}

// NewCoalescer wraps api for one entity type.
func NewCoalescer[R model.Remote](typ model.EntityType, api API[R]) *Coalescer[R] {
	return &Coalescer[R]{typ: typ, api: api}
}

// Create passes through: every create is a distinct logical resource.
func (c *Coalescer[R]) Create(ctx context.Context, m R) (R, error) {
	return c.api.Create(ctx, m)
}

func (c *Coalescer[R]) Update(ctx context.Context, remoteID string, m R) (R, error) {
	v, err, _ := c.group.Do(string(c.typ)+"/update/"+remoteID, func() (any, error) {
		return c.api.Update(ctx, remoteID, m)
	})
	if err != nil {
		var none R
		return none, err
	}
	return v.(R), nil
}

func (c *Coalescer[R]) Delete(ctx context.Context, remoteID string) error {
	_, err, _ := c.group.Do(string(c.typ)+"/delete/"+remoteID, func() (any, error) {
		return nil, c.api.Delete(ctx, remoteID)
	})
	return err
}

func (c *Coalescer[R]) ListChangedSince(ctx context.Context, since time.Time) ([]R, error) {
	key := string(c.typ) + "/list/" + strconv.FormatInt(since.UnixNano(), 10)
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.api.ListChangedSince(ctx, since)
	})
	if err != nil {
		return nil, err
	}
	return v.([]R), nil
}
