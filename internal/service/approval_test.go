package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"feedloop.app/triage/internal/model"
	"feedloop.app/triage/internal/queue"
	"feedloop.app/triage/internal/service"
	"feedloop.app/triage/internal/store"
	"feedloop.app/triage/internal/tracker"
)

var _ = Describe("ApprovalService", func() {
	var (
		svc          service.ApprovalService
		mockDrafts   *mockIssueDraftStore
		mockFeedback *mockFeedbackStore
		mockTrack    *mockTracker
		emitter      *mockEmitter
		ctx          context.Context
	)

	draftInState := func(status model.DraftStatus) *model.IssueDraft {
		return &model.IssueDraft{
			ID:             100,
			FeedbackID:     200,
			Title:          "Fix export crash",
			Body:           "## Problem\n\nExport crashes.",
			Classification: model.ClassificationBug,
			Severity:       model.SeverityHigh,
			Labels:         []string{"bug", "high"},
			Status:         status,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		mockDrafts = &mockIssueDraftStore{}
		mockFeedback = &mockFeedbackStore{}
		mockTrack = &mockTracker{}
		emitter = &mockEmitter{}

		svc = service.NewApprovalService(mockDrafts, mockFeedback, mockTrack, emitter, nil)
	})

	Describe("Approve", func() {
		Context("with a draft in draft status", func() {
			var published bool

			BeforeEach(func() {
				published = false
				mockDrafts.getByIDFn = func(ctx context.Context, id int64) (*model.IssueDraft, error) {
					d := draftInState(model.DraftStatusDraft)
					if published {
						d.Status = model.DraftStatusPublished
						url := "https://github.com/acme/app/issues/7"
						d.ExternalURL = &url
					}
					return d, nil
				}
				mockDrafts.markPublishedFn = func(ctx context.Context, id int64, externalURL string) error {
					published = true
					return nil
				}
				mockTrack.createIssueFn = func(ctx context.Context, req tracker.IssueRequest) (*tracker.Issue, error) {
					return &tracker.Issue{URL: "https://github.com/acme/app/issues/7", Number: 7}, nil
				}
			})

			It("creates the tracker issue and publishes the draft", func() {
				result, err := svc.Approve(ctx, service.ApproveParams{DraftID: 100})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Status).To(Equal(model.DraftStatusPublished))
				Expect(result.ExternalURL).NotTo(BeNil())
				Expect(*result.ExternalURL).To(Equal("https://github.com/acme/app/issues/7"))

				Expect(mockTrack.capturedReq).NotTo(BeNil())
				Expect(mockTrack.capturedReq.Title).To(Equal("Fix export crash"))
				Expect(mockTrack.capturedReq.Labels).To(Equal([]string{"bug", "high"}))

				Expect(emitter.publishedEvents).To(HaveLen(1))
				Expect(emitter.publishedEvents[0].DraftID).To(Equal(int64(100)))
			})

			It("applies a custom title and merges custom labels", func() {
				title := "Export to CSV crashes on empty datasets"
				_, err := svc.Approve(ctx, service.ApproveParams{
					DraftID:      100,
					CustomTitle:  &title,
					CustomLabels: []string{"p1", "export"},
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(mockTrack.capturedReq.Title).To(Equal(title))
				Expect(mockTrack.capturedReq.Labels).To(Equal([]string{"bug", "high", "p1", "export"}))
			})

			It("drops custom labels the draft already carries", func() {
				_, err := svc.Approve(ctx, service.ApproveParams{
					DraftID:      100,
					CustomLabels: []string{"high", "p1"},
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(mockTrack.capturedReq.Labels).To(Equal([]string{"bug", "high", "p1"}))
			})

			It("ignores an empty custom title", func() {
				empty := ""
				_, err := svc.Approve(ctx, service.ApproveParams{
					DraftID:     100,
					CustomTitle: &empty,
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(mockTrack.capturedReq.Title).To(Equal("Fix export crash"))
			})

			It("leaves the draft untouched when the tracker fails", func() {
				mockTrack.createIssueFn = func(ctx context.Context, req tracker.IssueRequest) (*tracker.Issue, error) {
					return nil, errors.New("403 rate limited")
				}

				_, err := svc.Approve(ctx, service.ApproveParams{DraftID: 100})

				Expect(err).To(MatchError(service.ErrTrackerFailed))
				Expect(published).To(BeFalse())
				Expect(emitter.publishedEvents).To(BeEmpty())
			})

			It("still succeeds when event emission fails", func() {
				emitter.emitPublishedFn = func(ctx context.Context, event queue.PublishedEvent) error {
					return errors.New("stream unavailable")
				}

				result, err := svc.Approve(ctx, service.ApproveParams{DraftID: 100})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Status).To(Equal(model.DraftStatusPublished))
			})
		})

		It("returns ErrNotFound for a missing draft", func() {
			_, err := svc.Approve(ctx, service.ApproveParams{DraftID: 999})
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("returns ErrInvalidState for a published draft", func() {
			mockDrafts.getByIDFn = func(ctx context.Context, id int64) (*model.IssueDraft, error) {
				return draftInState(model.DraftStatusPublished), nil
			}

			_, err := svc.Approve(ctx, service.ApproveParams{DraftID: 100})

			Expect(err).To(MatchError(store.ErrInvalidState))
			Expect(mockTrack.capturedReq).To(BeNil())
		})

		It("returns ErrInvalidState for a rejected draft", func() {
			mockDrafts.getByIDFn = func(ctx context.Context, id int64) (*model.IssueDraft, error) {
				return draftInState(model.DraftStatusRejected), nil
			}

			_, err := svc.Approve(ctx, service.ApproveParams{DraftID: 100})

			Expect(err).To(MatchError(store.ErrInvalidState))
		})
	})

	Describe("Reject", func() {
		It("transitions the draft and records the reason", func() {
			var capturedReason *string
			mockDrafts.markRejectedFn = func(ctx context.Context, id int64, reason *string) error {
				capturedReason = reason
				return nil
			}
			mockDrafts.getByIDFn = func(ctx context.Context, id int64) (*model.IssueDraft, error) {
				return draftInState(model.DraftStatusRejected), nil
			}

			reason := "duplicate of an existing ticket"
			result, err := svc.Reject(ctx, 100, &reason)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(model.DraftStatusRejected))
			Expect(capturedReason).NotTo(BeNil())
			Expect(*capturedReason).To(Equal(reason))
		})

		It("propagates ErrInvalidState from the store", func() {
			mockDrafts.markRejectedFn = func(ctx context.Context, id int64, reason *string) error {
				return store.ErrInvalidState
			}

			_, err := svc.Reject(ctx, 100, nil)
			Expect(err).To(MatchError(store.ErrInvalidState))
		})
	})

	Describe("Get", func() {
		It("joins the duplicate linkage from the feedback item", func() {
			mockDrafts.getByIDFn = func(ctx context.Context, id int64) (*model.IssueDraft, error) {
				return draftInState(model.DraftStatusDraft), nil
			}
			dupOf := int64(42)
			mockFeedback.getByIDFn = func(ctx context.Context, id int64) (*model.FeedbackItem, error) {
				return &model.FeedbackItem{ID: 200, IsDuplicate: true, DuplicateOf: &dupOf}, nil
			}

			view, err := svc.Get(ctx, 100)

			Expect(err).NotTo(HaveOccurred())
			Expect(view.IsDuplicate).To(BeTrue())
			Expect(view.DuplicateOf).To(Equal(&dupOf))
		})

		It("returns ErrNotFound for a missing draft", func() {
			_, err := svc.Get(ctx, 999)
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})
})
