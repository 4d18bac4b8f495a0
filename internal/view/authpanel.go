package view

import (
	"context"

	"github.com/go-playground/validator/v10"

	"airbnblite/internal/models"
)

// AuthMode selects which endpoint the auth form posts to.
type AuthMode string

const (
	ModeLogin    AuthMode = "login"
	ModeRegister AuthMode = "register"
)

var validate = validator.New()

// AuthPanel is the login / register form shown to anonymous visitors.
type AuthPanel struct {
	loop *loop
	api  API

	mode  AuthMode
	draft models.Credentials
	msg   string
	busy  inflight
}

func newAuthPanel(l *loop, api API) *AuthPanel {
	return &AuthPanel{loop: l, api: api, mode: ModeLogin, busy: inflight{}}
}

// SetMode switches between login and register. Unknown modes are ignored.
func (p *AuthPanel) SetMode(m AuthMode) {
	if m != ModeLogin && m != ModeRegister {
		return
	}
	p.loop.mu.Lock()
	p.mode = m
	p.loop.mu.Unlock()
}

// SetDraft replaces the form contents.
func (p *AuthPanel) SetDraft(c models.Credentials) {
	p.loop.mu.Lock()
	p.draft = c
	p.loop.mu.Unlock()
}

// Submit posts the draft to the endpoint of the current mode. It returns the
// session token after a successful login and "" otherwise; every other
// outcome is reported through the panel message.
func (p *AuthPanel) Submit(ctx context.Context) (string, error) {
	p.loop.mu.Lock()
	if !p.busy.begin(actionAuth) {
		p.loop.mu.Unlock()
		return "", ErrBusy
	}
	p.msg = ""
	mode, creds := p.mode, p.draft
	if validate.Struct(creds) != nil {
		p.busy.end(actionAuth)
		p.msg = MsgMissingFields
		p.loop.mu.Unlock()
		return "", nil
	}
	p.loop.mu.Unlock()

	var (
		token string
		err   error
	)
	if mode == ModeLogin {
		token, err = p.api.Login(ctx, creds)
	} else {
		err = p.api.Register(ctx, creds)
	}

	p.loop.mu.Lock()
	defer p.loop.mu.Unlock()
	p.busy.end(actionAuth)
	p.draft.Password = ""

	if err != nil {
		msg, network := serverMessage(err, MsgGenericError)
		if network {
			p.loop.log.Errorw("auth request failed", "mode", mode, "error", err)
			msg = MsgNetworkError
		}
		p.msg = msg
		return "", nil
	}

	if mode == ModeRegister {
		p.msg = MsgRegistered
		p.mode = ModeLogin
		return "", nil
	}
	if token == "" {
		p.loop.log.Warnw("login answered without a token")
		p.msg = MsgGenericError
		return "", nil
	}
	return token, nil
}

// AuthView is a rendering snapshot of the auth panel.
type AuthView struct {
	Mode    AuthMode
	Email   string
	Message string
	Pending bool
}

// view must be called with the loop mutex held.
func (p *AuthPanel) view() AuthView {
	return AuthView{
		Mode:    p.mode,
		Email:   p.draft.Email,
		Message: p.msg,
		Pending: p.busy[actionAuth],
	}
}
