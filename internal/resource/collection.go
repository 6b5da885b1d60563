// Package resource maps every backend endpoint to a typed accessor.
//
// Accessors only route: they pick the verb and path, marshal arguments and
// decode the response envelope. Decoded records are normalized once here so
// callers never deal with missing fields.
package resource

import (
	"context"
	"net/url"

	"github.com/ashureev/folio/internal/apiclient"
	"github.com/ashureev/folio/internal/domain"
)

// record constrains T so that *T can be normalized.
type record[T any] interface {
	*T
	domain.Normalizer
}

// Collection provides CRUD accessors for one REST collection.
type Collection[T any, P record[T]] struct {
	client       *apiclient.Client
	path         string
	updateMethod string
}

func newCollection[T any, P record[T]](c *apiclient.Client, path, updateMethod string) Collection[T, P] {
	return Collection[T, P]{client: c, path: path, updateMethod: updateMethod}
}

// Path returns the collection path, e.g. "/blogs".
func (r Collection[T, P]) Path() string { return r.path }

// List fetches every record: GET {path}.
func (r Collection[T, P]) List(ctx context.Context) ([]T, error) {
	return r.Filter(ctx, nil)
}

// Filter fetches records matching query parameters: GET {path}?{params}.
func (r Collection[T, P]) Filter(ctx context.Context, params url.Values) ([]T, error) {
	endpoint := r.path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	return getList[T, P](ctx, r.client, endpoint)
}

// Get fetches one record: GET {path}/{id}.
func (r Collection[T, P]) Get(ctx context.Context, id string) (T, error) {
	return getOne[T, P](ctx, r.client, r.item(id))
}

// Create creates a record: POST {path}.
func (r Collection[T, P]) Create(ctx context.Context, payload any) (T, error) {
	var env domain.Envelope[T]
	if err := r.client.Post(ctx, r.path, payload, &env); err != nil {
		var zero T
		return zero, err
	}
	P(&env.Data).Normalize()
	return env.Data, nil
}

// Update updates a record: PUT or PATCH {path}/{id}.
func (r Collection[T, P]) Update(ctx context.Context, id string, payload any) (T, error) {
	var env domain.Envelope[T]
	if err := r.client.Do(ctx, r.updateMethod, r.item(id), payload, &env); err != nil {
		var zero T
		return zero, err
	}
	P(&env.Data).Normalize()
	return env.Data, nil
}

// Delete deletes a record: DELETE {path}/{id}.
func (r Collection[T, P]) Delete(ctx context.Context, id string) error {
	return r.client.Delete(ctx, r.item(id), nil)
}

func (r Collection[T, P]) item(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func getList[T any, P record[T]](ctx context.Context, c *apiclient.Client, endpoint string) ([]T, error) {
	var env domain.Envelope[[]T]
	if err := c.Get(ctx, endpoint, &env); err != nil {
		return nil, err
	}
	items := env.Data
	if items == nil {
		items = []T{}
	}
	for i := range items {
		P(&items[i]).Normalize()
	}
	return items, nil
}

func getOne[T any, P record[T]](ctx context.Context, c *apiclient.Client, endpoint string) (T, error) {
	var env domain.Envelope[T]
	if err := c.Get(ctx, endpoint, &env); err != nil {
		var zero T
		return zero, err
	}
	P(&env.Data).Normalize()
	return env.Data, nil
}
