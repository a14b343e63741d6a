package service_test

import (
	"context"

	"feedloop.app/triage/internal/model"
	"feedloop.app/triage/internal/queue"
	"feedloop.app/triage/internal/service"
	"feedloop.app/triage/internal/store"
	"feedloop.app/triage/internal/tracker"
)

type mockFeedbackStore struct {
	getByIDFn       func(ctx context.Context, id int64) (*model.FeedbackItem, error)
	createFn        func(ctx context.Context, item *model.FeedbackItem) error
	updateTriageFn  func(ctx context.Context, item *model.FeedbackItem) error
	markProcessedFn func(ctx context.Context, id int64) error
	capturedItem    *model.FeedbackItem
}

func (m *mockFeedbackStore) GetByID(ctx context.Context, id int64) (*model.FeedbackItem, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockFeedbackStore) Create(ctx context.Context, item *model.FeedbackItem) error {
	m.capturedItem = item
	if m.createFn != nil {
		return m.createFn(ctx, item)
	}
	return nil
}

func (m *mockFeedbackStore) UpdateTriage(ctx context.Context, item *model.FeedbackItem) error {
	m.capturedItem = item
	if m.updateTriageFn != nil {
		return m.updateTriageFn(ctx, item)
	}
	return nil
}

func (m *mockFeedbackStore) MarkProcessed(ctx context.Context, id int64) error {
	if m.markProcessedFn != nil {
		return m.markProcessedFn(ctx, id)
	}
	return nil
}

type mockIssueDraftStore struct {
	getByIDFn         func(ctx context.Context, id int64) (*model.IssueDraft, error)
	getByFeedbackIDFn func(ctx context.Context, feedbackID int64) (*model.IssueDraft, error)
	upsertFn          func(ctx context.Context, draft *model.IssueDraft) error
	listByStatusFn    func(ctx context.Context, status model.DraftStatus, limit int32) ([]model.IssueDraft, error)
	countByStatusFn   func(ctx context.Context, status model.DraftStatus) (int64, error)
	markPublishedFn   func(ctx context.Context, id int64, externalURL string) error
	markRejectedFn    func(ctx context.Context, id int64, reason *string) error
	capturedDraft     *model.IssueDraft
}

func (m *mockIssueDraftStore) GetByID(ctx context.Context, id int64) (*model.IssueDraft, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockIssueDraftStore) GetByFeedbackID(ctx context.Context, feedbackID int64) (*model.IssueDraft, error) {
	if m.getByFeedbackIDFn != nil {
		return m.getByFeedbackIDFn(ctx, feedbackID)
	}
	return nil, store.ErrNotFound
}

func (m *mockIssueDraftStore) Upsert(ctx context.Context, draft *model.IssueDraft) error {
	m.capturedDraft = draft
	if m.upsertFn != nil {
		return m.upsertFn(ctx, draft)
	}
	return nil
}

func (m *mockIssueDraftStore) ListByStatus(ctx context.Context, status model.DraftStatus, limit int32) ([]model.IssueDraft, error) {
	if m.listByStatusFn != nil {
		return m.listByStatusFn(ctx, status, limit)
	}
	return nil, nil
}

func (m *mockIssueDraftStore) CountByStatus(ctx context.Context, status model.DraftStatus) (int64, error) {
	if m.countByStatusFn != nil {
		return m.countByStatusFn(ctx, status)
	}
	return 0, nil
}

func (m *mockIssueDraftStore) MarkPublished(ctx context.Context, id int64, externalURL string) error {
	if m.markPublishedFn != nil {
		return m.markPublishedFn(ctx, id, externalURL)
	}
	return nil
}

func (m *mockIssueDraftStore) MarkRejected(ctx context.Context, id int64, reason *string) error {
	if m.markRejectedFn != nil {
		return m.markRejectedFn(ctx, id, reason)
	}
	return nil
}

type mockProducer struct {
	enqueueFn   func(ctx context.Context, msg queue.FeedbackMessage) error
	capturedMsg *queue.FeedbackMessage
}

func (m *mockProducer) Enqueue(ctx context.Context, msg queue.FeedbackMessage) error {
	m.capturedMsg = &msg
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, msg)
	}
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}

type mockEmitter struct {
	emitProcessedFn func(ctx context.Context, event queue.ProcessedEvent) error
	emitPublishedFn func(ctx context.Context, event queue.PublishedEvent) error
	processedEvents []queue.ProcessedEvent
	publishedEvents []queue.PublishedEvent
}

func (m *mockEmitter) EmitProcessed(ctx context.Context, event queue.ProcessedEvent) error {
	m.processedEvents = append(m.processedEvents, event)
	if m.emitProcessedFn != nil {
		return m.emitProcessedFn(ctx, event)
	}
	return nil
}

func (m *mockEmitter) EmitPublished(ctx context.Context, event queue.PublishedEvent) error {
	m.publishedEvents = append(m.publishedEvents, event)
	if m.emitPublishedFn != nil {
		return m.emitPublishedFn(ctx, event)
	}
	return nil
}

type mockTracker struct {
	createIssueFn func(ctx context.Context, req tracker.IssueRequest) (*tracker.Issue, error)
	capturedReq   *tracker.IssueRequest
}

func (m *mockTracker) CreateIssue(ctx context.Context, req tracker.IssueRequest) (*tracker.Issue, error) {
	m.capturedReq = &req
	if m.createIssueFn != nil {
		return m.createIssueFn(ctx, req)
	}
	return &tracker.Issue{URL: "https://example.com/issues/1", Number: 1}, nil
}

type mockStoreProvider struct {
	feedback *mockFeedbackStore
	drafts   *mockIssueDraftStore
}

func (m *mockStoreProvider) Feedback() store.FeedbackStore {
	return m.feedback
}

func (m *mockStoreProvider) IssueDrafts() store.IssueDraftStore {
	return m.drafts
}

type mockTxRunner struct {
	provider *mockStoreProvider
}

func (m *mockTxRunner) WithTx(ctx context.Context, fn func(stores service.StoreProvider) error) error {
	return fn(m.provider)
}
