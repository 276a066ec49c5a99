package server

import (
	"context"

	"chirp/internal/models"
	"chirp/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock of the AccountRepository interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByHandle(ctx context.Context, handle string) (*models.Account, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Account, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uint]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateProfile(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) SetPushToken(ctx context.Context, id uint, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *MockAccountRepository) GetPushToken(ctx context.Context, id uint) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockAccountRepository) Search(ctx context.Context, query string, limit int) ([]models.Account, error) {
	args := m.Called(ctx, query, limit)
	return args.Get(0).([]models.Account), args.Error(1)
}

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Post, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uint]*models.Post), args.Error(1)
}

func (m *MockPostRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	args := m.Called(ctx, id)
	recipients, _ := args.Get(0).([]uint)
	return recipients, args.Error(1)
}

func (m *MockPostRepository) ListReplies(ctx context.Context, parentID uint, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, parentID, limit, offset)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, authorID, limit, offset)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) Search(ctx context.Context, query string, limit int) ([]*models.Post, error) {
	args := m.Called(ctx, query, limit)
	return args.Get(0).([]*models.Post), args.Error(1)
}

// MockRelationshipRepository is a mock of the RelationshipRepository interface
type MockRelationshipRepository struct {
	mock.Mock
}

func (m *MockRelationshipRepository) CreateEdge(ctx context.Context, kind models.EdgeKind, actorID, targetID uint) (*models.Edge, error) {
	args := m.Called(ctx, kind, actorID, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Edge), args.Error(1)
}

func (m *MockRelationshipRepository) DeleteEdge(ctx context.Context, kind models.EdgeKind, actorID, targetID uint) (*models.Edge, error) {
	args := m.Called(ctx, kind, actorID, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Edge), args.Error(1)
}

func (m *MockRelationshipRepository) ExistsEdge(ctx context.Context, kind models.EdgeKind, actorID, targetID uint) (bool, error) {
	args := m.Called(ctx, kind, actorID, targetID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRelationshipRepository) ListTargets(ctx context.Context, actorID uint, kind models.EdgeKind) ([]uint, error) {
	args := m.Called(ctx, actorID, kind)
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockRelationshipRepository) ListFollowers(ctx context.Context, accountID uint, limit, offset int) ([]models.Account, error) {
	args := m.Called(ctx, accountID, limit, offset)
	return args.Get(0).([]models.Account), args.Error(1)
}

func (m *MockRelationshipRepository) ListFollowing(ctx context.Context, accountID uint, limit, offset int) ([]models.Account, error) {
	args := m.Called(ctx, accountID, limit, offset)
	return args.Get(0).([]models.Account), args.Error(1)
}

// MockFeedRepository is a mock of the FeedRepository interface
type MockFeedRepository struct {
	mock.Mock
}

func (m *MockFeedRepository) Page(ctx context.Context, q repository.FeedQuery) (*repository.FeedBatch, error) {
	args := m.Called(ctx, q)
	batch, _ := args.Get(0).(*repository.FeedBatch)
	return batch, args.Error(1)
}

func (m *MockFeedRepository) Count(ctx context.Context, authorIDs []uint) (int64, error) {
	args := m.Called(ctx, authorIDs)
	return args.Get(0).(int64), args.Error(1)
}

// MockViewerStateRepository is a mock of the ViewerStateRepository interface
type MockViewerStateRepository struct {
	mock.Mock
}

func (m *MockViewerStateRepository) Resolve(ctx context.Context, viewerID uint, postIDs []uint) (map[uint]models.ViewerState, error) {
	args := m.Called(ctx, viewerID, postIDs)
	return args.Get(0).(map[uint]models.ViewerState), args.Error(1)
}

// MockNotificationRepository is a mock of the NotificationRepository interface
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) List(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, error) {
	args := m.Called(ctx, recipientID, limit, offset)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, recipientID uint) error {
	args := m.Called(ctx, id, recipientID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, id, recipientID uint) error {
	args := m.Called(ctx, id, recipientID)
	return args.Error(0)
}

type testMocks struct {
	accounts *MockAccountRepository
	posts    *MockPostRepository
	rels     *MockRelationshipRepository
	feed     *MockFeedRepository
	viewer   *MockViewerStateRepository
	notifs   *MockNotificationRepository
}

func newTestMocks() *testMocks {
	return &testMocks{
		accounts: new(MockAccountRepository),
		posts:    new(MockPostRepository),
		rels:     new(MockRelationshipRepository),
		feed:     new(MockFeedRepository),
		viewer:   new(MockViewerStateRepository),
		notifs:   new(MockNotificationRepository),
	}
}

func (m *testMocks) repositories() Repositories {
	return Repositories{
		Accounts:      m.accounts,
		Posts:         m.posts,
		Relationships: m.rels,
		Feed:          m.feed,
		ViewerState:   m.viewer,
		Notifications: m.notifs,
	}
}
