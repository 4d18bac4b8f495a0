package view

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"airbnblite/internal/apitest"
	"airbnblite/internal/auth"
	"airbnblite/internal/models"
	"airbnblite/pkg/apiclient"
)

type fixture struct {
	srv   *apitest.Server
	store *auth.MemoryStore
	ctrl  *Controller
}

// newFixture starts a fake API and a controller whose store holds token.
func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)

	store := auth.NewMemoryStore(token)
	api := apiclient.New(srv.URL, 5*time.Second)
	ctrl := NewController(api, auth.NewManager(store), zaptest.NewLogger(t).Sugar())
	return &fixture{srv: srv, store: store, ctrl: ctrl}
}

// waitHits blocks until path has been requested n times.
func waitHits(t *testing.T, srv *apitest.Server, path string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return srv.Hits(path) >= n }, 2*time.Second, 5*time.Millisecond)
}

func ctx() context.Context {
	return context.Background()
}

func credentials(email, password string) models.Credentials {
	return models.Credentials{Email: email, Password: password}
}
