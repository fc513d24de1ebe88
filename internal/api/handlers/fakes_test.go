package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	apiContext "zoomhook/internal/api/context"
	"zoomhook/internal/engine/credentials"
	"zoomhook/internal/platform/repositories"
	"zoomhook/internal/platform/zoom/api"
	"zoomhook/internal/platform/zoom/oauth"
)

type fakeOAuth struct {
	install      *oauth.InstallRequest
	token        *oauth.Token
	err          error
	gotCode      string
	gotVerifier  string
	accountToken *oauth.Token
}

func (f *fakeOAuth) InstallURL() (*oauth.InstallRequest, error) {
	return f.install, f.err
}

func (f *fakeOAuth) Exchange(ctx context.Context, code, verifier string) (*oauth.Token, error) {
	f.gotCode, f.gotVerifier = code, verifier
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

func (f *fakeOAuth) Refresh(ctx context.Context, refreshToken string) (*oauth.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

func (f *fakeOAuth) AccountToken(ctx context.Context) (*oauth.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.accountToken, nil
}

type fakeZoom struct {
	user       *api.User
	meeting    *api.Meeting
	registrant *api.Registrant
	deeplink   string
	err        error

	lastToken      string
	lastMeetingID  string
	lastEmail      string
	lastRegistrant *api.RegistrantRequest
	lastCreate     *api.CreateMeetingRequest
}

var _ api.ClientAPI = (*fakeZoom)(nil)

func (f *fakeZoom) GetUser(ctx context.Context, token, userID string) (*api.User, error) {
	f.lastToken = token
	return f.user, f.err
}

func (f *fakeZoom) GetMe(ctx context.Context, token string) (*api.User, error) {
	return f.GetUser(ctx, token, "me")
}

func (f *fakeZoom) CreateMeeting(ctx context.Context, token string, request *api.CreateMeetingRequest) (*api.Meeting, error) {
	f.lastToken, f.lastCreate = token, request
	return f.meeting, f.err
}

func (f *fakeZoom) AddRegistrant(ctx context.Context, token, meetingID string, request *api.RegistrantRequest) (*api.Registrant, error) {
	f.lastToken, f.lastMeetingID, f.lastRegistrant = token, meetingID, request
	return f.registrant, f.err
}

func (f *fakeZoom) AssignCoHost(ctx context.Context, token, meetingID, email string) error {
	f.lastToken, f.lastMeetingID, f.lastEmail = token, meetingID, email
	return f.err
}

func (f *fakeZoom) StartRecording(ctx context.Context, token, meetingID string) error {
	f.lastToken, f.lastMeetingID = token, meetingID
	return f.err
}

func (f *fakeZoom) GetDeeplink(ctx context.Context, token string, action *api.DeeplinkAction) (string, error) {
	f.lastToken = token
	return f.deeplink, f.err
}

func withSession(r *http.Request, sessionID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), apiContext.Session, sessionID))
}

func withParams(r *http.Request, ps httprouter.Params) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), apiContext.Params, ps))
}

// newCredentials returns a service with one live credential for "sess".
func newCredentials(refresher credentials.Refresher) (*credentials.Service, *repositories.MemoryCredentialStore) {
	store := repositories.NewMemoryCredentialStore()
	svc := credentials.NewService(store, refresher)
	_, _ = svc.Issue(context.Background(), "sess", "user-1", &oauth.Token{
		AccessToken:  "user-access",
		RefreshToken: "user-refresh",
		TokenType:    "bearer",
		Expiry:       time.Now().Add(time.Hour),
	})
	return svc, store
}
