package transport_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	goPerm "github.com/MrEthical07/goPerm"
	"github.com/MrEthical07/goPerm/httpapi"
	"github.com/MrEthical07/goPerm/permission"
	"github.com/MrEthical07/goPerm/store"
	"github.com/MrEthical07/goPerm/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T) (*transport.Client, *goPerm.Service) {
	t.Helper()
	svc, err := goPerm.New().Build()
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	ts := httptest.NewServer(httpapi.NewServer(svc).Handler())
	t.Cleanup(ts.Close)
	return transport.NewClient(ts.URL+"/", transport.WithHTTPClient(ts.Client())), svc
}

func TestClientRoleLifecycle(t *testing.T) {
	client, _ := newAPI(t)
	ctx := context.Background()
	codec := permission.NewCodec(permission.DefaultCatalog())

	created, err := client.Create(ctx, store.Record{
		Name:        "Agent",
		Permissions: codec.Encode(permission.SetOf(permission.Module("tickets", permission.ActionShow))),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Version)

	got, err := client.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Agent", got.Name)

	got.Description = "front line"
	updated, err := client.Update(ctx, *got)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	_, err = client.Update(ctx, *got)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	list, err := client.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, client.AssignUser(ctx, "u1", created.ID))
	perms, err := client.UserPermissions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "tickets", perms[0].Page)

	require.NoError(t, client.Delete(ctx, created.ID))
	_, err = client.Get(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClientValidationError(t *testing.T) {
	client, _ := newAPI(t)

	_, err := client.Create(context.Background(), store.Record{
		Name:        "Broken",
		Permissions: []permission.Entry{{Page: "nowhere", Actions: permission.List(permission.ActionShow)}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, permission.ErrValidationFailed)

	var apiErr *transport.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	require.Len(t, apiErr.Diagnostics, 1)
	assert.Equal(t, permission.CodeUnknownModule, apiErr.Diagnostics[0].Code)
}

func TestClientSubmitRoleWarnings(t *testing.T) {
	client, _ := newAPI(t)
	codec := permission.NewCodec(permission.DefaultCatalog())

	resp, err := client.SubmitRole(context.Background(), store.Record{
		Name:        "HR",
		Permissions: codec.Encode(permission.SetOf(permission.Module("employees", permission.ActionShow, permission.ActionDelete))),
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Warnings)
	assert.Equal(t, permission.CodeCriticalDelete, resp.Warnings[0].Code)
}

func TestClientValidateCatalogAndAudit(t *testing.T) {
	client, _ := newAPI(t)
	ctx := context.Background()

	rep, err := client.Validate(ctx, []permission.Entry{{Page: "tickets", Actions: permission.List("fly")}})
	require.NoError(t, err)
	assert.False(t, rep.OK())
	assert.True(t, rep.Has(permission.CodeUnknownAction))

	cat, err := client.Catalog(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, cat.Modules)

	_, err = client.Create(ctx, store.Record{Name: "Agent", Permissions: []permission.Entry{}})
	require.NoError(t, err)
	sum, err := client.Audit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalRoles)
}

func TestClientAsServiceStore(t *testing.T) {
	client, remote := newAPI(t)

	local, err := goPerm.New().WithStore(client).Build()
	require.NoError(t, err)
	t.Cleanup(local.Close)

	ctx := context.Background()
	set, err := local.ToggleAction(ctx, permission.NewSet(), permission.Simple("tickets"), permission.ActionDelete, true)
	require.NoError(t, err)

	rec, decoded, err := local.SubmitRole(ctx, goPerm.RoleDraft{Name: "Remote", Permissions: set})
	require.NoError(t, err)
	assert.True(t, decoded.Grants(permission.Simple("tickets"), permission.ActionShow))

	_, stored, err := remote.LoadRole(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.Equal(decoded))
}

func TestClientStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		target error
	}{
		{http.StatusNotFound, store.ErrNotFound},
		{http.StatusConflict, store.ErrVersionConflict},
		{http.StatusBadRequest, store.ErrInvalidRecord},
		{http.StatusUnauthorized, transport.ErrUnauthorized},
		{http.StatusForbidden, transport.ErrUnauthorized},
		{http.StatusBadGateway, store.ErrUnavailable},
		{http.StatusServiceUnavailable, store.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("not json"))
			}))
			defer ts.Close()

			_, err := transport.NewClient(ts.URL).Get(context.Background(), "r1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)

			var apiErr *transport.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusText(tt.status), apiErr.Message)
		})
	}
}

func TestClientSendsBearerToken(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer ts.Close()

	_, err := transport.NewClient(ts.URL, transport.WithToken("tok")).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", got)
}

func TestClientUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := transport.NewClient(url).List(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestClientUpdateRequiresID(t *testing.T) {
	_, err := transport.NewClient("http://unused").Update(context.Background(), store.Record{Name: "x"})
	assert.ErrorIs(t, err, store.ErrInvalidRecord)
}
