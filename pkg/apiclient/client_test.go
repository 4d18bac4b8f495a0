package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnblite/internal/apitest"
	"airbnblite/internal/models"
	"airbnblite/pkg/apiclient"
)

func newClient(t *testing.T) (*apiclient.Client, *apitest.Server) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL+"/", 5*time.Second), srv
}

func TestClient_RegisterLoginAndOwnListings(t *testing.T) {
	c, srv := newClient(t)
	ctx := context.Background()
	creds := models.Credentials{Email: "host@a.com", Password: "pw"}

	require.NoError(t, c.Register(ctx, creds))

	token, err := c.Login(ctx, creds)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := c.CreateListing(ctx, token, models.NewListing{Title: "Cabaña", City: "Areguá", Price: 150, Type: models.TypeHouse})
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)
	assert.Equal(t, "Bearer "+token, srv.LastAuth("/api/create_listing"))

	mine, err := c.MyListings(ctx, token)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Cabaña", mine[0].Title)
}

func TestClient_Listings(t *testing.T) {
	c, srv := newClient(t)

	all, err := c.Listings(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Empty(t, srv.LastAuth("/api/listings"))
}

func TestClient_APIErrorCarriesServerMessage(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.Login(context.Background(), models.Credentials{Email: "x@a.com", Password: "bad"})

	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Credenciales inválidas", apiErr.Message)
}

func TestClient_APIErrorWithoutBody(t *testing.T) {
	c, srv := newClient(t)
	srv.FailPath("/api/book", http.StatusInternalServerError, "")

	_, err := c.Book(context.Background(), "", 1)

	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Empty(t, apiErr.Message)
}

func TestClient_BookWithoutTokenSendsNoHeader(t *testing.T) {
	c, srv := newClient(t)

	id, err := c.Book(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Empty(t, srv.LastAuth("/api/book"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(srv.LastBody("/api/book"), &body))
	assert.Equal(t, float64(2), body["listing_id"])
}

func TestClient_DecodeFailureIsNotAPIError(t *testing.T) {
	c, srv := newClient(t)
	srv.RawPath("/api/listings", "<html>oops</html>")

	_, err := c.Listings(context.Background())
	require.Error(t, err)

	var apiErr *apiclient.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClient_TransportFailure(t *testing.T) {
	c := apiclient.New("http://127.0.0.1:1", time.Second)

	_, err := c.Listings(context.Background())
	require.Error(t, err)

	var apiErr *apiclient.APIError
	assert.False(t, errors.As(err, &apiErr))
}
