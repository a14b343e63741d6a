package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"feedloop.app/triage/internal/http/handler"
	"feedloop.app/triage/internal/model"
)

var _ = Describe("InternalHandler", func() {
	var (
		router *gin.Engine
		svc    *mockDraftSaveService
	)

	const internalKey = "test-internal-key"

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockDraftSaveService{}
		h := handler.NewInternalHandler(svc, internalKey)

		internal := router.Group("/api/internal")
		internal.Use(h.RequireInternalAPIKey())
		{
			internal.POST("/save-issue", h.SaveIssue)
			internal.POST("/triage-result", h.TriageResult)
		}
	})

	doPost := func(path, body, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	validSaveBody := `{
		"feedbackId": 200,
		"title": "Fix export crash",
		"body": "## Problem\n\nExport crashes.",
		"classification": "bug",
		"severity": "high",
		"confidence": 0.9,
		"reproductionSteps": ["Export to CSV"],
		"affectedComponents": ["export"],
		"acceptanceCriteria": ["Export completes"],
		"labels": ["crash", "bug", "high"],
		"specConfidence": 0.8
	}`

	Describe("authentication", func() {
		It("rejects requests without the internal key", func() {
			w := doPost("/api/internal/save-issue", validSaveBody, "")
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("rejects a wrong key", func() {
			w := doPost("/api/internal/save-issue", validSaveBody, "wrong")
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("SaveIssue", func() {
		It("saves the draft from a camelCase payload", func() {
			w := doPost("/api/internal/save-issue", validSaveBody, internalKey)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(svc.capturedSave).NotTo(BeNil())
			Expect(svc.capturedSave.FeedbackID).To(Equal(int64(200)))
			Expect(svc.capturedSave.Classification).To(Equal(model.ClassificationBug))
			Expect(svc.capturedSave.ReproductionSteps).To(Equal([]string{"Export to CSV"}))
		})

		It("rejects a missing title", func() {
			w := doPost("/api/internal/save-issue", `{"feedbackId":200,"classification":"bug","severity":"high"}`, internalKey)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(svc.capturedSave).To(BeNil())
		})

		It("rejects an unknown classification", func() {
			w := doPost("/api/internal/save-issue", `{"feedbackId":200,"title":"A valid title","classification":"complaint","severity":"high"}`, internalKey)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(svc.capturedSave).To(BeNil())
		})
	})

	Describe("TriageResult", func() {
		It("records the triage outcome", func() {
			body := `{
				"feedbackId": 200,
				"classification": "question",
				"severity": "low",
				"confidence": 0.7,
				"isDuplicate": true,
				"duplicateOf": 42
			}`
			w := doPost("/api/internal/triage-result", body, internalKey)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(svc.capturedTriage).NotTo(BeNil())
			Expect(svc.capturedTriage.IsDuplicate).To(BeTrue())
			Expect(*svc.capturedTriage.DuplicateOf).To(Equal(int64(42)))
		})

		It("rejects an unknown severity", func() {
			w := doPost("/api/internal/triage-result", `{"feedbackId":200,"classification":"bug","severity":"urgent"}`, internalKey)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(svc.capturedTriage).To(BeNil())
		})
	})
})
