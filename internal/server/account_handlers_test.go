package server

import (
	"net/http"
	"testing"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRegister(t *testing.T) {
	m := newTestMocks()
	m.accounts.On("Create", mock.Anything, mock.MatchedBy(func(a *models.Account) bool {
		return a.Handle == "ada_l" && a.DisplayName == "Ada"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Account).ID = 3
	}).Return(nil).Once()
	_, app := newTestServer(t, m, nil)

	resp := doRequest(t, app, http.MethodPost, "/api/accounts", map[string]string{
		"handle": "ada_l", "display_name": "Ada",
	}, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var account models.Account
	decodeBody(t, resp, &account)
	assert.Equal(t, uint(3), account.ID)
	m.accounts.AssertExpectations(t)
}

func TestRegister_Errors(t *testing.T) {
	m := newTestMocks()
	m.accounts.On("Create", mock.Anything, mock.Anything).
		Return(models.NewAlreadyExistsError("handle is already taken")).Once()
	_, app := newTestServer(t, m, nil)

	resp := doRequest(t, app, http.MethodPost, "/api/accounts", map[string]string{"handle": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/accounts", map[string]string{"handle": "taken"}, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var body models.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, models.CodeAlreadyExists, body.Code)
}

func TestGetAccount(t *testing.T) {
	m := newTestMocks()
	m.accounts.On("GetByID", mock.Anything, uint(2)).
		Return(&models.Account{ID: 2, Handle: "bob", FollowersCount: 4}, nil)
	m.accounts.On("GetByID", mock.Anything, uint(9)).
		Return(nil, models.NewNotFoundError("Account", 9))
	_, app := newTestServer(t, m, nil)

	resp := doRequest(t, app, http.MethodGet, "/api/accounts/2", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var account models.Account
	decodeBody(t, resp, &account)
	assert.Equal(t, 4, account.FollowersCount)

	resp = doRequest(t, app, http.MethodGet, "/api/accounts/9", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/accounts/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFollowAccount(t *testing.T) {
	m := newTestMocks()
	m.rels.On("CreateEdge", mock.Anything, models.EdgeFollow, uint(1), uint(2)).
		Return(&models.Edge{Kind: models.EdgeFollow, ActorID: 1, TargetID: 2}, nil).Once()
	m.notifs.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.Kind == models.NotificationFollow && n.ActorID == 1 && n.RecipientID == 2 && n.PostID == nil
	})).Return(nil).Once()
	m.accounts.On("GetByID", mock.Anything, uint(1)).Return(&models.Account{ID: 1, Handle: "ada"}, nil)
	_, app := newTestServer(t, m, nil)

	resp := doRequest(t, app, http.MethodPost, "/api/accounts/2/follow", nil, bearer(t, 1, ""))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	m.rels.AssertExpectations(t)
	m.notifs.AssertExpectations(t)
}

func TestFollowAccount_Errors(t *testing.T) {
	m := newTestMocks()
	m.rels.On("CreateEdge", mock.Anything, models.EdgeFollow, uint(1), uint(1)).
		Return(nil, models.NewInvalidOperationError("cannot follow yourself"))
	m.rels.On("CreateEdge", mock.Anything, models.EdgeFollow, uint(1), uint(2)).
		Return(nil, models.NewAlreadyExistsError("already following"))
	m.rels.On("CreateEdge", mock.Anything, models.EdgeFollow, uint(1), uint(404)).
		Return(nil, models.NewNotFoundError("Account", 404))
	_, app := newTestServer(t, m, nil)
	auth := bearer(t, 1, "")

	resp := doRequest(t, app, http.MethodPost, "/api/accounts/1/follow", nil, auth)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = doRequest(t, app, http.MethodPost, "/api/accounts/2/follow", nil, auth)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp = doRequest(t, app, http.MethodPost, "/api/accounts/404/follow", nil, auth)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = doRequest(t, app, http.MethodPost, "/api/accounts/2/follow", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	m.notifs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUnfollowAndStatus(t *testing.T) {
	m := newTestMocks()
	m.rels.On("DeleteEdge", mock.Anything, models.EdgeFollow, uint(1), uint(2)).
		Return(&models.Edge{Kind: models.EdgeFollow, ActorID: 1, TargetID: 2}, nil).Once()
	m.rels.On("DeleteEdge", mock.Anything, models.EdgeFollow, uint(1), uint(3)).
		Return(nil, models.NewNotFoundError("Follow", 3)).Once()
	m.rels.On("ExistsEdge", mock.Anything, models.EdgeFollow, uint(1), uint(2)).Return(true, nil).Once()
	_, app := newTestServer(t, m, nil)
	auth := bearer(t, 1, "")

	resp := doRequest(t, app, http.MethodGet, "/api/accounts/2/follow", nil, auth)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var status struct {
		Following bool `json:"following"`
	}
	decodeBody(t, resp, &status)
	assert.True(t, status.Following)

	resp = doRequest(t, app, http.MethodDelete, "/api/accounts/2/follow", nil, auth)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doRequest(t, app, http.MethodDelete, "/api/accounts/3/follow", nil, auth)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateMyProfile(t *testing.T) {
	m := newTestMocks()
	m.accounts.On("GetByID", mock.Anything, uint(5)).Return(&models.Account{ID: 5, Handle: "eve"}, nil)
	m.accounts.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(a *models.Account) bool {
		return a.ID == 5 && a.Bio == "hello"
	})).Return(nil).Once()
	_, app := newTestServer(t, m, nil)

	resp := doRequest(t, app, http.MethodPut, "/api/accounts/me", map[string]string{"bio": "hello"}, bearer(t, 5, ""))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	m.accounts.AssertExpectations(t)
}

func TestSetMyPushToken(t *testing.T) {
	m := newTestMocks()
	m.accounts.On("SetPushToken", mock.Anything, uint(5), "device-token").Return(nil).Once()
	_, app := newTestServer(t, m, nil)

	resp := doRequest(t, app, http.MethodPut, "/api/accounts/me/push-token", map[string]string{"token": "device-token"}, bearer(t, 5, ""))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	m.accounts.AssertExpectations(t)
}
