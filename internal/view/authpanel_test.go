package view

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnblite/internal/auth"
	"airbnblite/internal/models"
)

func TestLogin_Success(t *testing.T) {
	f := newFixture(t, "")
	f.srv.AddUser("a@a.com", "x")

	f.ctrl.Auth().SetDraft(models.Credentials{Email: "a@a.com", Password: "x"})
	require.NoError(t, f.ctrl.SubmitAuth(ctx()))

	st, ok := f.ctrl.State().(Authenticated)
	require.True(t, ok)
	assert.NotEmpty(t, st.Session.Token)
	require.NotNil(t, st.Session.Claims)
	assert.Equal(t, int64(1), st.Session.Claims.UserID)

	stored, err := f.store.Load()
	require.NoError(t, err)
	assert.Equal(t, st.Session.Token, stored)

	assert.Nil(t, f.ctrl.Auth())
	assert.NotNil(t, f.ctrl.Host())
	// host panel mounted
	assert.Equal(t, 1, f.srv.Hits("/api/my_listings"))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t, "")
	f.srv.AddUser("a@a.com", "x")

	f.ctrl.Auth().SetDraft(models.Credentials{Email: "a@a.com", Password: "wrong"})
	require.NoError(t, f.ctrl.SubmitAuth(ctx()))

	assert.IsType(t, Anonymous{}, f.ctrl.State())
	_, err := f.store.Load()
	assert.ErrorIs(t, err, auth.ErrNoToken)

	page := f.ctrl.Snapshot()
	require.NotNil(t, page.Auth)
	assert.Equal(t, "Credenciales inválidas", page.Auth.Message)
	assert.Equal(t, "a@a.com", page.Auth.Email)
}

func TestRegister_SwitchesToLogin(t *testing.T) {
	f := newFixture(t, "")
	panel := f.ctrl.Auth()

	panel.SetMode(ModeRegister)
	panel.SetDraft(models.Credentials{Email: "a@a.com", Password: "x"})
	require.NoError(t, f.ctrl.SubmitAuth(ctx()))

	page := f.ctrl.Snapshot()
	require.NotNil(t, page.Auth)
	assert.Equal(t, ModeLogin, page.Auth.Mode)
	assert.Equal(t, MsgRegistered, page.Auth.Message)
	assert.False(t, page.Logged)
	_, err := f.store.Load()
	assert.ErrorIs(t, err, auth.ErrNoToken)
}

func TestRegister_ServerError(t *testing.T) {
	f := newFixture(t, "")
	f.srv.AddUser("a@a.com", "x")
	panel := f.ctrl.Auth()

	panel.SetMode(ModeRegister)
	panel.SetDraft(models.Credentials{Email: "a@a.com", Password: "x"})
	require.NoError(t, f.ctrl.SubmitAuth(ctx()))

	page := f.ctrl.Snapshot()
	assert.Equal(t, ModeRegister, page.Auth.Mode)
	assert.Equal(t, "Email ya registrado", page.Auth.Message)
}

func TestSubmit_Messages(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		creds models.Credentials
		want  string
	}{
		{
			name:  "missing fields stay local",
			creds: models.Credentials{Email: "a@a.com"},
			want:  MsgMissingFields,
		},
		{
			name:  "error without body",
			setup: func(f *fixture) { f.srv.FailPath("/auth/login", http.StatusBadGateway, "") },
			creds: models.Credentials{Email: "a@a.com", Password: "x"},
			want:  MsgGenericError,
		},
		{
			name:  "empty token",
			setup: func(f *fixture) { f.srv.RawPath("/auth/login", `{"token":""}`) },
			creds: models.Credentials{Email: "a@a.com", Password: "x"},
			want:  MsgGenericError,
		},
		{
			name:  "network",
			setup: func(f *fixture) { f.srv.Close() },
			creds: models.Credentials{Email: "a@a.com", Password: "x"},
			want:  MsgNetworkError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "")
			if tt.setup != nil {
				tt.setup(f)
			}
			f.ctrl.Auth().SetDraft(tt.creds)

			require.NoError(t, f.ctrl.SubmitAuth(ctx()))

			page := f.ctrl.Snapshot()
			assert.False(t, page.Logged)
			assert.Equal(t, tt.want, page.Auth.Message)
		})
	}
	t.Run("missing fields send nothing", func(t *testing.T) {
		f := newFixture(t, "")
		f.ctrl.Auth().SetDraft(models.Credentials{Password: "x"})
		require.NoError(t, f.ctrl.SubmitAuth(ctx()))
		assert.Zero(t, f.srv.Hits("/auth/login"))
	})
}

func TestSubmit_DuplicateIsRejected(t *testing.T) {
	f := newFixture(t, "")
	f.srv.AddUser("a@a.com", "x")
	release := f.srv.HoldPath("/auth/login")
	t.Cleanup(release)
	f.ctrl.Auth().SetDraft(models.Credentials{Email: "a@a.com", Password: "x"})

	done := make(chan error, 1)
	go func() { done <- f.ctrl.SubmitAuth(ctx()) }()
	waitHits(t, f.srv, "/auth/login", 1)
	assert.True(t, f.ctrl.Snapshot().Auth.Pending)

	assert.ErrorIs(t, f.ctrl.SubmitAuth(ctx()), ErrBusy)

	release()
	require.NoError(t, <-done)
	assert.True(t, f.ctrl.Snapshot().Logged)
}

func TestSetMode_IgnoresUnknown(t *testing.T) {
	f := newFixture(t, "")
	f.ctrl.Auth().SetMode("admin")
	assert.Equal(t, ModeLogin, f.ctrl.Snapshot().Auth.Mode)
}
