package service

import (
	"context"
	"sync"

	"chirp/internal/models"
	"chirp/internal/repository"
)

type accountRepoStub struct {
	createFn        func(context.Context, *models.Account) error
	getByIDFn       func(context.Context, uint) (*models.Account, error)
	getByHandleFn   func(context.Context, string) (*models.Account, error)
	getByIDsFn      func(context.Context, []uint) (map[uint]*models.Account, error)
	updateProfileFn func(context.Context, *models.Account) error
	setPushTokenFn  func(context.Context, uint, string) error
	getPushTokenFn  func(context.Context, uint) (string, error)
	searchFn        func(context.Context, string, int) ([]models.Account, error)
}

func (s *accountRepoStub) Create(ctx context.Context, a *models.Account) error {
	return s.createFn(ctx, a)
}
func (s *accountRepoStub) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	return s.getByIDFn(ctx, id)
}
func (s *accountRepoStub) GetByHandle(ctx context.Context, handle string) (*models.Account, error) {
	return s.getByHandleFn(ctx, handle)
}
func (s *accountRepoStub) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Account, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *accountRepoStub) UpdateProfile(ctx context.Context, a *models.Account) error {
	return s.updateProfileFn(ctx, a)
}
func (s *accountRepoStub) SetPushToken(ctx context.Context, id uint, token string) error {
	return s.setPushTokenFn(ctx, id, token)
}
func (s *accountRepoStub) GetPushToken(ctx context.Context, id uint) (string, error) {
	return s.getPushTokenFn(ctx, id)
}
func (s *accountRepoStub) Search(ctx context.Context, q string, limit int) ([]models.Account, error) {
	return s.searchFn(ctx, q, limit)
}

func noopAccountRepo() *accountRepoStub {
	return &accountRepoStub{
		createFn: func(context.Context, *models.Account) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Account, error) {
			return &models.Account{ID: id, Handle: "user"}, nil
		},
		getByHandleFn:   func(context.Context, string) (*models.Account, error) { return &models.Account{}, nil },
		getByIDsFn:      func(context.Context, []uint) (map[uint]*models.Account, error) { return nil, nil },
		updateProfileFn: func(context.Context, *models.Account) error { return nil },
		setPushTokenFn:  func(context.Context, uint, string) error { return nil },
		getPushTokenFn:  func(context.Context, uint) (string, error) { return "", nil },
		searchFn:        func(context.Context, string, int) ([]models.Account, error) { return nil, nil },
	}
}

type postRepoStub struct {
	createFn       func(context.Context, *models.Post) error
	getByIDFn      func(context.Context, uint) (*models.Post, error)
	getByIDsFn     func(context.Context, []uint) (map[uint]*models.Post, error)
	deleteFn       func(context.Context, uint) ([]uint, error)
	listRepliesFn  func(context.Context, uint, int, int) ([]*models.Post, error)
	listByAuthorFn func(context.Context, uint, int, int) ([]*models.Post, error)
	searchFn       func(context.Context, string, int) ([]*models.Post, error)
}

func (s *postRepoStub) Create(ctx context.Context, p *models.Post) error {
	return s.createFn(ctx, p)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Post, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) ([]uint, error) {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) ListReplies(ctx context.Context, parentID uint, limit, offset int) ([]*models.Post, error) {
	return s.listRepliesFn(ctx, parentID, limit, offset)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	return s.listByAuthorFn(ctx, authorID, limit, offset)
}
func (s *postRepoStub) Search(ctx context.Context, q string, limit int) ([]*models.Post, error) {
	return s.searchFn(ctx, q, limit)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 100
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: 1, Content: "hello"}, nil
		},
		getByIDsFn:     func(context.Context, []uint) (map[uint]*models.Post, error) { return nil, nil },
		deleteFn:       func(context.Context, uint) ([]uint, error) { return nil, nil },
		listRepliesFn:  func(context.Context, uint, int, int) ([]*models.Post, error) { return nil, nil },
		listByAuthorFn: func(context.Context, uint, int, int) ([]*models.Post, error) { return nil, nil },
		searchFn:       func(context.Context, string, int) ([]*models.Post, error) { return nil, nil },
	}
}

type relRepoStub struct {
	createEdgeFn    func(context.Context, models.EdgeKind, uint, uint) (*models.Edge, error)
	deleteEdgeFn    func(context.Context, models.EdgeKind, uint, uint) (*models.Edge, error)
	existsEdgeFn    func(context.Context, models.EdgeKind, uint, uint) (bool, error)
	listTargetsFn   func(context.Context, uint, models.EdgeKind) ([]uint, error)
	listFollowersFn func(context.Context, uint, int, int) ([]models.Account, error)
	listFollowingFn func(context.Context, uint, int, int) ([]models.Account, error)
}

func (s *relRepoStub) CreateEdge(ctx context.Context, kind models.EdgeKind, actorID, targetID uint) (*models.Edge, error) {
	return s.createEdgeFn(ctx, kind, actorID, targetID)
}
func (s *relRepoStub) DeleteEdge(ctx context.Context, kind models.EdgeKind, actorID, targetID uint) (*models.Edge, error) {
	return s.deleteEdgeFn(ctx, kind, actorID, targetID)
}
func (s *relRepoStub) ExistsEdge(ctx context.Context, kind models.EdgeKind, actorID, targetID uint) (bool, error) {
	return s.existsEdgeFn(ctx, kind, actorID, targetID)
}
func (s *relRepoStub) ListTargets(ctx context.Context, actorID uint, kind models.EdgeKind) ([]uint, error) {
	return s.listTargetsFn(ctx, actorID, kind)
}
func (s *relRepoStub) ListFollowers(ctx context.Context, accountID uint, limit, offset int) ([]models.Account, error) {
	return s.listFollowersFn(ctx, accountID, limit, offset)
}
func (s *relRepoStub) ListFollowing(ctx context.Context, accountID uint, limit, offset int) ([]models.Account, error) {
	return s.listFollowingFn(ctx, accountID, limit, offset)
}

func noopRelRepo() *relRepoStub {
	edge := func(_ context.Context, kind models.EdgeKind, actorID, targetID uint) (*models.Edge, error) {
		return &models.Edge{Kind: kind, ActorID: actorID, TargetID: targetID}, nil
	}
	return &relRepoStub{
		createEdgeFn:    edge,
		deleteEdgeFn:    edge,
		existsEdgeFn:    func(context.Context, models.EdgeKind, uint, uint) (bool, error) { return false, nil },
		listTargetsFn:   func(context.Context, uint, models.EdgeKind) ([]uint, error) { return nil, nil },
		listFollowersFn: func(context.Context, uint, int, int) ([]models.Account, error) { return nil, nil },
		listFollowingFn: func(context.Context, uint, int, int) ([]models.Account, error) { return nil, nil },
	}
}

type viewerRepoStub struct {
	calls     int
	resolveFn func(context.Context, uint, []uint) (map[uint]models.ViewerState, error)
}

func (s *viewerRepoStub) Resolve(ctx context.Context, viewerID uint, ids []uint) (map[uint]models.ViewerState, error) {
	s.calls++
	return s.resolveFn(ctx, viewerID, ids)
}

func noopViewerRepo() *viewerRepoStub {
	return &viewerRepoStub{
		resolveFn: func(context.Context, uint, []uint) (map[uint]models.ViewerState, error) {
			return map[uint]models.ViewerState{}, nil
		},
	}
}

// feedRepoStub reports every returned item as scanned unless scanned is set.
type feedRepoStub struct {
	lastQuery repository.FeedQuery
	scanned   int
	pageFn    func(context.Context, repository.FeedQuery) ([]models.FeedItem, error)
	countFn   func(context.Context, []uint) (int64, error)
}

func (s *feedRepoStub) Page(ctx context.Context, q repository.FeedQuery) (*repository.FeedBatch, error) {
	s.lastQuery = q
	items, err := s.pageFn(ctx, q)
	if err != nil {
		return nil, err
	}
	scanned := len(items)
	if s.scanned > 0 {
		scanned = s.scanned
	}
	return &repository.FeedBatch{Items: items, Scanned: scanned}, nil
}
func (s *feedRepoStub) Count(ctx context.Context, authorIDs []uint) (int64, error) {
	return s.countFn(ctx, authorIDs)
}

type notificationRepoStub struct {
	createFn      func(context.Context, *models.Notification) error
	listFn        func(context.Context, uint, int, int) ([]models.Notification, error)
	countUnreadFn func(context.Context, uint) (int64, error)
	markReadFn    func(context.Context, uint, uint) error
	markAllReadFn func(context.Context, uint) (int64, error)
	deleteFn      func(context.Context, uint, uint) error
}

func (s *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	return s.createFn(ctx, n)
}
func (s *notificationRepoStub) List(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, error) {
	return s.listFn(ctx, recipientID, limit, offset)
}
func (s *notificationRepoStub) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	return s.countUnreadFn(ctx, recipientID)
}
func (s *notificationRepoStub) MarkRead(ctx context.Context, id, recipientID uint) error {
	return s.markReadFn(ctx, id, recipientID)
}
func (s *notificationRepoStub) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	return s.markAllReadFn(ctx, recipientID)
}
func (s *notificationRepoStub) Delete(ctx context.Context, id, recipientID uint) error {
	return s.deleteFn(ctx, id, recipientID)
}

func noopNotificationRepo() *notificationRepoStub {
	return &notificationRepoStub{
		createFn:      func(context.Context, *models.Notification) error { return nil },
		listFn:        func(context.Context, uint, int, int) ([]models.Notification, error) { return nil, nil },
		countUnreadFn: func(context.Context, uint) (int64, error) { return 0, nil },
		markReadFn:    func(context.Context, uint, uint) error { return nil },
		markAllReadFn: func(context.Context, uint) (int64, error) { return 0, nil },
		deleteFn:      func(context.Context, uint, uint) error { return nil },
	}
}

// recordingEmitter captures emitted events instead of delivering them.
type recordingEmitter struct {
	mu     sync.Mutex
	events []NotificationEvent
}

func (e *recordingEmitter) Emit(_ context.Context, ev NotificationEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *recordingEmitter) Events() []NotificationEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]NotificationEvent(nil), e.events...)
}

type staticFlags map[string]bool

func (f staticFlags) Enabled(name string, _ uint) bool {
	return f[name]
}
