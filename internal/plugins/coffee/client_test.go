package coffee_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"menubar/internal/credential"
	"menubar/internal/fetch"
	"menubar/internal/plugins/coffee"
	"menubar/internal/testutil"
)

const password = "hunter2"

func newClient(t *testing.T, h http.Handler, pw string) *coffee.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return clientFor(t, srv.URL, pw)
}

func clientFor(t *testing.T, baseURL, pw string) *coffee.Client {
	t.Helper()
	var src oauth2.TokenSource
	if pw != "" {
		src = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: pw})
	}
	c, err := coffee.NewClient(coffee.Options{
		BaseURL:  baseURL,
		Timeout:  time.Second,
		Password: src,
	})
	require.NoError(t, err)
	return c
}

func day(s string) time.Time {
	t, err := time.ParseInLocation(coffee.DateLayout, s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := coffee.NewClient(coffee.Options{BaseURL: "a7a9ck.deta.dev"})
	assert.Error(t, err)
}

func TestActiveBags(t *testing.T) {
	api := testutil.NewCoffeeAPI(password)
	api.AddBag("b1", "Onyx", "Geometry", 340, "2024-03-01")
	api.AddBag("b2", "Sey", "Kenya Gachatha", 250, "2024-03-03")
	c := newClient(t, api, password)

	res := c.ActiveBags(context.Background())

	require.False(t, res.Failed(), "%v", res.Err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "b1", res.Items[0].Key)
	assert.Equal(t, "Onyx - Geometry", res.Items[0].String())
	assert.Equal(t, 340.0, res.Items[0].Weight)
	assert.True(t, day("2024-03-01").Equal(res.Items[0].Start))
	assert.Equal(t, "b2", res.Items[1].Key)
	assert.Equal(t, []string{"GET /active_bags/"}, api.Requests())
}

func TestActiveBagsEmpty(t *testing.T) {
	c := newClient(t, testutil.NewCoffeeAPI(password), password)

	res := c.ActiveBags(context.Background())

	assert.True(t, res.Empty())
	assert.False(t, res.Failed())
}

func TestActiveBagsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(testutil.NewCoffeeAPI(password))
	srv.Close()
	c := clientFor(t, srv.URL, password)

	res := c.ActiveBags(context.Background())

	assert.True(t, res.Failed())
	assert.False(t, res.Fatal())
	assert.Empty(t, res.Items)
	assert.ErrorIs(t, res.Err, fetch.ErrTransport)
}

func TestActiveBagsStatusFailure(t *testing.T) {
	api := testutil.NewCoffeeAPI(password)
	api.FailStatus = http.StatusInternalServerError
	c := newClient(t, api, password)

	res := c.ActiveBags(context.Background())

	assert.True(t, res.Failed())
	assert.False(t, res.Fatal())
	assert.ErrorIs(t, res.Err, coffee.ErrStatusCode)
	var se *coffee.StatusError
	require.True(t, errors.As(res.Err, &se))
	assert.Equal(t, 500, se.Code)
	assert.Equal(t, "Injected failure.", se.Detail)
}

func TestActiveBagsTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(block) })

	c, err := coffee.NewClient(coffee.Options{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	res := c.ActiveBags(context.Background())
	assert.ErrorIs(t, res.Err, fetch.ErrTransport)
	assert.False(t, res.Fatal())
}

func TestActiveBagsStrictDecoding(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		cause error
	}{
		{
			name:  "unknown field",
			body:  `{"b1":{"brand":"Onyx","name":"Geometry","weight":340,"start":"2024-03-01","colour":"brown"}}`,
			field: "colour",
			cause: fetch.ErrUnknownField,
		},
		{
			name:  "missing field",
			body:  `{"b1":{"brand":"Onyx","name":"Geometry","start":"2024-03-01"}}`,
			field: "weight",
			cause: fetch.ErrMissingField,
		},
		{
			name:  "bad date",
			body:  `{"b1":{"brand":"Onyx","name":"Geometry","weight":340,"start":"03/01/2024"}}`,
			field: "start",
			cause: fetch.ErrInvalidField,
		},
		{
			name:  "wrong type",
			body:  `{"b1":{"brand":"Onyx","name":"Geometry","weight":"heavy","start":"2024-03-01"}}`,
			field: "weight",
			cause: fetch.ErrInvalidField,
		},
		{
			name:  "mismatched key",
			body:  `{"b1":{"brand":"Onyx","name":"Geometry","weight":340,"start":"2024-03-01","key":"b2"}}`,
			field: "key",
			cause: fetch.ErrInvalidField,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}), password)

			res := c.ActiveBags(context.Background())

			require.True(t, res.Fatal(), "%v", res.Err)
			var de *fetch.DecodeError
			require.True(t, errors.As(res.Err, &de))
			assert.Equal(t, "b1", de.Record)
			assert.Equal(t, tc.field, de.Field)
			assert.ErrorIs(t, res.Err, tc.cause)
		})
	}
}

func TestActiveBagsAcceptsBookkeepingFields(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"b1":{"brand":"Onyx","name":"Geometry","weight":340,"start":"2024-03-01","active":true,"finish":null,"key":"b1"}}`))
	}), password)

	res := c.ActiveBags(context.Background())

	require.NoError(t, res.Err)
	assert.Len(t, res.Items, 1)
}

func TestUsesAndCups(t *testing.T) {
	api := testutil.NewCoffeeAPI(password)
	api.AddBag("b1", "Onyx", "Geometry", 340, "2024-03-01")
	api.AddUse("u1", "b1", "2024-03-04T21:00:00")
	api.AddUse("u2", "b1", "2024-03-05T07:45:00")
	api.AddUse("u3", "b1", "2024-03-05T09:10:00")
	api.AddUse("u4", "b1", "2024-03-05T13:00:00")
	c := newClient(t, api, password)
	ctx := context.Background()

	res := c.Uses(ctx, day("2024-03-05"), 2)
	require.NoError(t, res.Err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "u3", res.Items[0].Key)
	assert.Equal(t, "b1", res.Items[0].BagID)
	assert.Equal(t, "09:10", res.Items[0].When.Format("15:04"))
	assert.Equal(t, "u4", res.Items[1].Key)

	n, err := c.CupsSince(ctx, day("2024-03-05"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestWritesNeedPassword(t *testing.T) {
	api := testutil.NewCoffeeAPI(password)
	api.AddBag("b1", "Onyx", "Geometry", 340, "2024-03-01")
	c := newClient(t, api, "")
	ctx := context.Background()

	_, err := c.NewUse(ctx, "b1", time.Now())
	assert.ErrorIs(t, err, credential.ErrNotFound)
	_, err = c.Deactivate(ctx, "b1", time.Now())
	assert.ErrorIs(t, err, credential.ErrNotFound)
	_, err = c.NewBag(ctx, coffee.BagDraft{Brand: "a", Name: "b", Weight: 1, Start: time.Now()})
	assert.ErrorIs(t, err, credential.ErrNotFound)

	assert.Empty(t, api.Requests())
}

func TestNewUseWrongPassword(t *testing.T) {
	api := testutil.NewCoffeeAPI(password)
	api.AddBag("b1", "Onyx", "Geometry", 340, "2024-03-01")
	c := newClient(t, api, "guess")

	_, err := c.NewUse(context.Background(), "b1", time.Now())

	var se *coffee.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "Incorrect password.", se.Detail)
	assert.Equal(t, "status code: 401", se.Error())
	assert.Equal(t, 0, api.UseCount("b1"))
}

func TestNewBagRoundTrip(t *testing.T) {
	api := testutil.NewCoffeeAPI(password)
	c := newClient(t, api, password)
	ctx := context.Background()
	draft := coffee.BagDraft{Brand: "Onyx", Name: "Southern Weather", Weight: 283.5, Start: day("2024-03-05")}

	_, err := c.NewBag(ctx, draft)
	require.NoError(t, err)

	res := c.ActiveBags(ctx)
	require.NoError(t, res.Err)
	require.Len(t, res.Items, 1)
	got := res.Items[0]
	assert.Equal(t, draft.Brand, got.Brand)
	assert.Equal(t, draft.Name, got.Name)
	assert.Equal(t, draft.Weight, got.Weight)
	assert.True(t, draft.Start.Equal(got.Start))
}

func TestNewBagValidatesDraft(t *testing.T) {
	api := testutil.NewCoffeeAPI(password)
	c := newClient(t, api, password)

	_, err := c.NewBag(context.Background(), coffee.BagDraft{Name: "Geometry", Weight: 340, Start: time.Now()})

	assert.ErrorIs(t, err, fetch.ErrMissingField)
	assert.Empty(t, api.Requests())
}

func TestBagKeyStaysOneSegment(t *testing.T) {
	api := apiWithBag()
	api.AddBag("b 2", "Onyx", "Monarch", 340, "2024-03-02")
	c := newClient(t, api, password)
	ctx := context.Background()

	_, err := c.NewUse(ctx, "b 2", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, api.UseCount("b 2"))

	_, err = c.NewUse(ctx, "../new_bag/", time.Now())
	var se *coffee.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "Bag not found.", se.Detail)

	_, err = c.Deactivate(ctx, "b1/..", time.Now())
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	_, deactivated := api.Finished("b1")
	assert.False(t, deactivated)

	assert.Equal(t, []string{
		"PUT /new_use/b 2",
		"PUT /new_use/../new_bag/",
		"PATCH /deactivate/b1/..",
	}, api.Requests())
}

func TestDotBagKeysRejected(t *testing.T) {
	api := apiWithBag()
	c := newClient(t, api, password)
	ctx := context.Background()

	for _, key := range []string{"", ".", ".."} {
		_, err := c.NewUse(ctx, key, time.Now())
		assert.ErrorIs(t, err, coffee.ErrInvalidBagKey, "key %q", key)
		_, err = c.Deactivate(ctx, key, time.Now())
		assert.ErrorIs(t, err, coffee.ErrInvalidBagKey, "key %q", key)
	}
	assert.Empty(t, api.Requests())
}
