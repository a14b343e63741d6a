package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"feedloop.app/triage/common/id"
	"feedloop.app/triage/internal/model"
	"feedloop.app/triage/internal/service"
	"feedloop.app/triage/internal/store"
)

var _ = Describe("DraftSaveService", func() {
	var (
		svc          service.DraftSaveService
		mockFeedback *mockFeedbackStore
		mockDrafts   *mockIssueDraftStore
		ctx          context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockFeedback = &mockFeedbackStore{}
		mockDrafts = &mockIssueDraftStore{}

		err := id.Init(1)
		Expect(err).NotTo(HaveOccurred())

		txRunner := &mockTxRunner{provider: &mockStoreProvider{
			feedback: mockFeedback,
			drafts:   mockDrafts,
		}}
		svc = service.NewDraftSaveService(txRunner, nil)
	})

	Describe("SaveIssue", func() {
		params := func() service.SaveIssueParams {
			return service.SaveIssueParams{
				FeedbackID:         200,
				Title:              "Fix export crash",
				Body:               "## Problem\n\nExport crashes.",
				Classification:     model.ClassificationBug,
				Severity:           model.SeverityHigh,
				Reasoning:          "User reports a crash",
				Confidence:         0.92,
				AffectedComponents: []string{"export"},
				AcceptanceCriteria: []string{"Export completes without crashing"},
				Labels:             []string{"crash", "bug", "high"},
				SpecConfidence:     0.8,
			}
		}

		It("upserts the draft and records the triage outcome", func() {
			var processed bool
			mockFeedback.getByIDFn = func(ctx context.Context, fid int64) (*model.FeedbackItem, error) {
				return &model.FeedbackItem{ID: fid, Source: model.SourceDiscord}, nil
			}
			mockFeedback.markProcessedFn = func(ctx context.Context, fid int64) error {
				processed = true
				return nil
			}

			draft, err := svc.SaveIssue(ctx, params())

			Expect(err).NotTo(HaveOccurred())
			Expect(draft.Status).To(Equal(model.DraftStatusDraft))
			Expect(draft.FeedbackID).To(Equal(int64(200)))

			Expect(mockDrafts.capturedDraft).NotTo(BeNil())
			Expect(mockDrafts.capturedDraft.Title).To(Equal("Fix export crash"))
			Expect(mockDrafts.capturedDraft.Labels).To(Equal([]string{"crash", "bug", "high"}))

			Expect(mockFeedback.capturedItem.Classification).To(Equal(model.ClassificationBug))
			Expect(mockFeedback.capturedItem.Severity).To(Equal(model.SeverityHigh))
			Expect(processed).To(BeTrue())
		})

		It("normalizes nil list fields to empty slices", func() {
			mockFeedback.getByIDFn = func(ctx context.Context, fid int64) (*model.FeedbackItem, error) {
				return &model.FeedbackItem{ID: fid}, nil
			}

			p := params()
			p.ReproductionSteps = nil

			draft, err := svc.SaveIssue(ctx, p)

			Expect(err).NotTo(HaveOccurred())
			Expect(draft.ReproductionSteps).NotTo(BeNil())
			Expect(draft.ReproductionSteps).To(BeEmpty())
		})

		It("fails when the feedback item does not exist", func() {
			_, err := svc.SaveIssue(ctx, params())
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("rejects a missing feedback id", func() {
			p := params()
			p.FeedbackID = 0

			_, err := svc.SaveIssue(ctx, p)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a missing title", func() {
			p := params()
			p.Title = ""

			_, err := svc.SaveIssue(ctx, p)
			Expect(err).To(HaveOccurred())
		})

		It("rolls back when the upsert fails", func() {
			mockDrafts.upsertFn = func(ctx context.Context, draft *model.IssueDraft) error {
				return errors.New("deadlock detected")
			}

			_, err := svc.SaveIssue(ctx, params())

			Expect(err).To(HaveOccurred())
			Expect(mockFeedback.capturedItem).To(BeNil())
		})
	})

	Describe("RecordTriage", func() {
		It("stores the triage fields and marks the item processed", func() {
			var processed bool
			dupOf := int64(42)
			mockFeedback.getByIDFn = func(ctx context.Context, fid int64) (*model.FeedbackItem, error) {
				return &model.FeedbackItem{ID: fid, Source: model.SourceSlack}, nil
			}
			mockFeedback.markProcessedFn = func(ctx context.Context, fid int64) error {
				processed = true
				return nil
			}

			err := svc.RecordTriage(ctx, service.RecordTriageParams{
				FeedbackID:     200,
				Classification: model.ClassificationQuestion,
				Severity:       model.SeverityLow,
				Confidence:     0.7,
				Reasoning:      "User is asking how exports work",
				IsDuplicate:    true,
				DuplicateOf:    &dupOf,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(mockFeedback.capturedItem.IsDuplicate).To(BeTrue())
			Expect(mockFeedback.capturedItem.DuplicateOf).To(Equal(&dupOf))
			Expect(processed).To(BeTrue())
		})

		It("fails when the feedback item does not exist", func() {
			err := svc.RecordTriage(ctx, service.RecordTriageParams{
				FeedbackID:     999,
				Classification: model.ClassificationQuestion,
				Severity:       model.SeverityLow,
			})
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})
})
