package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"feedloop.app/triage/common/id"
	"feedloop.app/triage/internal/model"
	"feedloop.app/triage/internal/queue"
	"feedloop.app/triage/internal/service"
)

var _ = Describe("FeedbackIngestService", func() {
	var (
		svc          service.FeedbackIngestService
		mockFeedback *mockFeedbackStore
		mockQueue    *mockProducer
		ctx          context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockFeedback = &mockFeedbackStore{}
		mockQueue = &mockProducer{}

		err := id.Init(1)
		Expect(err).NotTo(HaveOccurred())

		svc = service.NewFeedbackIngestService(mockFeedback, mockQueue, "feedback:received", nil)
	})

	Describe("Ingest", func() {
		It("persists the item and enqueues it", func() {
			result, err := svc.Ingest(ctx, service.FeedbackIngestParams{
				Source:   model.SourceDiscord,
				Content:  "The export button crashes the app",
				Metadata: map[string]string{"channel_id": "123"},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Item.ID).NotTo(BeZero())
			Expect(result.Item.Source).To(Equal(model.SourceDiscord))
			Expect(result.Topic).To(Equal("feedback:received"))

			Expect(mockFeedback.capturedItem).NotTo(BeNil())
			Expect(mockFeedback.capturedItem.RawContent).To(Equal("The export button crashes the app"))

			Expect(mockQueue.capturedMsg).NotTo(BeNil())
			Expect(mockQueue.capturedMsg.FeedbackID).To(Equal(result.Item.ID))
			Expect(mockQueue.capturedMsg.Source).To(Equal("discord"))
		})

		It("trims surrounding whitespace before persisting", func() {
			result, err := svc.Ingest(ctx, service.FeedbackIngestParams{
				Source:  model.SourceSlack,
				Content: "  needs a dark mode  ",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Item.RawContent).To(Equal("needs a dark mode"))
		})

		It("rejects empty content", func() {
			_, err := svc.Ingest(ctx, service.FeedbackIngestParams{
				Source:  model.SourceDiscord,
				Content: "   ",
			})

			Expect(err).To(MatchError(service.ErrEmptyContent))
			Expect(mockFeedback.capturedItem).To(BeNil())
			Expect(mockQueue.capturedMsg).To(BeNil())
		})

		It("fails when the store write fails", func() {
			mockFeedback.createFn = func(ctx context.Context, item *model.FeedbackItem) error {
				return errors.New("connection refused")
			}

			_, err := svc.Ingest(ctx, service.FeedbackIngestParams{
				Source:  model.SourceDiscord,
				Content: "something broke",
			})

			Expect(err).To(HaveOccurred())
			Expect(mockQueue.capturedMsg).To(BeNil())
		})

		It("fails when enqueueing fails", func() {
			mockQueue.enqueueFn = func(ctx context.Context, msg queue.FeedbackMessage) error {
				return errors.New("stream unavailable")
			}

			_, err := svc.Ingest(ctx, service.FeedbackIngestParams{
				Source:  model.SourceSlack,
				Content: "cannot log in",
			})

			Expect(err).To(HaveOccurred())
		})
	})
})
