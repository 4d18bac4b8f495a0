package view

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnblite/internal/models"
)

// loggedIn returns a fixture already authenticated as a fresh host.
func loggedIn(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, "")
	f.srv.AddUser("host@a.com", "pw")
	f.ctrl.Auth().SetDraft(models.Credentials{Email: "host@a.com", Password: "pw"})
	require.NoError(t, f.ctrl.SubmitAuth(ctx()))
	require.True(t, f.ctrl.Snapshot().Logged)
	return f
}

func TestCreate_PriceIsSentAsNumber(t *testing.T) {
	f := loggedIn(t)
	host := f.ctrl.Host()

	host.SetDraft(models.ListingDraft{Title: "Cabaña", City: "Areguá", Price: "150", Type: "Casa"})
	require.NoError(t, f.ctrl.CreateListing(ctx()))

	var body map[string]any
	require.NoError(t, json.Unmarshal(f.srv.LastBody("/api/create_listing"), &body))
	assert.Equal(t, float64(150), body["price"])
	assert.Equal(t, "Cabaña", body["description"])
	assert.Equal(t, models.DefaultImage, body["image"])
	assert.Equal(t, "Casa", body["type"])
	assert.Contains(t, f.srv.LastAuth("/api/create_listing"), "Bearer ")

	v := f.ctrl.Snapshot().Host
	require.NotNil(t, v)
	assert.Equal(t, MsgListingCreated, v.Message)
	assert.Empty(t, v.Draft.Title)
	assert.Empty(t, v.Draft.City)
	assert.Empty(t, v.Draft.Price)
	require.Len(t, v.Mine, 1)
	assert.Equal(t, 150.0, v.Mine[0].Price)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		draft models.ListingDraft
		want  string
	}{
		{name: "missing title", draft: models.ListingDraft{City: "X", Price: "1"}, want: MsgMissingFields},
		{name: "bad type", draft: models.ListingDraft{Title: "T", City: "X", Price: "1", Type: "Castillo"}, want: MsgMissingFields},
		{name: "price not a number", draft: models.ListingDraft{Title: "T", City: "X", Price: "barato"}, want: MsgPriceNotNumber},
		{name: "price NaN", draft: models.ListingDraft{Title: "T", City: "X", Price: "NaN"}, want: MsgPriceNotNumber},
	}
	f := loggedIn(t)
	host := f.ctrl.Host()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host.SetDraft(tt.draft)
			require.NoError(t, f.ctrl.CreateListing(ctx()))
			assert.Equal(t, tt.want, f.ctrl.Snapshot().Host.Message)
		})
	}
	assert.Zero(t, f.srv.Hits("/api/create_listing"))
}

func TestCreate_ServerError(t *testing.T) {
	f := loggedIn(t)
	f.srv.FailPath("/api/create_listing", http.StatusBadRequest, "title y city requeridos")

	f.ctrl.Host().SetDraft(models.ListingDraft{Title: "T", City: "C", Price: "10"})
	require.NoError(t, f.ctrl.CreateListing(ctx()))

	v := f.ctrl.Snapshot().Host
	assert.Equal(t, "title y city requeridos", v.Message)
	// the draft survives a failed submit
	assert.Equal(t, "T", v.Draft.Title)
}

func TestCreate_NotAvailableWhenAnonymous(t *testing.T) {
	f := newFixture(t, "")
	assert.ErrorIs(t, f.ctrl.CreateListing(ctx()), ErrWrongState)
}

func TestMount_FailureLeavesListEmpty(t *testing.T) {
	f := newFixture(t, "garbage-token")
	f.ctrl.Start(ctx())

	v := f.ctrl.Snapshot()
	require.True(t, v.Logged)
	assert.Empty(t, v.Host.Mine)
	assert.Empty(t, v.Host.Message)
	assert.Equal(t, 3, v.Browser.Total)
}

func TestHostDraftDefaults(t *testing.T) {
	f := loggedIn(t)
	d := f.ctrl.Snapshot().Host.Draft
	assert.Equal(t, string(models.TypeApartment), d.Type)
	assert.Equal(t, models.DefaultImage, d.Image)
}

func TestCreate_AfterLogoutSendsNothing(t *testing.T) {
	f := loggedIn(t)
	host := f.ctrl.Host()
	require.NoError(t, f.ctrl.Logout())

	host.SetDraft(models.ListingDraft{Title: "T", City: "C", Price: "10"})
	assert.ErrorIs(t, host.Create(ctx()), ErrWrongState)
	assert.ErrorIs(t, host.Mount(ctx()), ErrWrongState)
	assert.Zero(t, f.srv.Hits("/api/create_listing"))
}

func TestCreate_LogoutCancelsRunningRequest(t *testing.T) {
	f := loggedIn(t)
	mounts := f.srv.Hits("/api/my_listings")
	release := f.srv.HoldPath("/api/create_listing")
	t.Cleanup(release)

	f.ctrl.Host().SetDraft(models.ListingDraft{Title: "T", City: "C", Price: "10"})

	var (
		wg  sync.WaitGroup
		err error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		err = f.ctrl.CreateListing(ctx())
	}()
	waitHits(t, f.srv, "/api/create_listing", 1)

	require.NoError(t, f.ctrl.Logout())
	wg.Wait()

	assert.ErrorIs(t, err, ErrWrongState)
	page := f.ctrl.Snapshot()
	assert.False(t, page.Logged)
	assert.Nil(t, page.Host)
	assert.Equal(t, mounts, f.srv.Hits("/api/my_listings"))
}
