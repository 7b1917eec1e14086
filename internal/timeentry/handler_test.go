package timeentry_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/wattline/contractor-erp/internal"
	"github.com/wattline/contractor-erp/internal/audit"
	auditPostgres "github.com/wattline/contractor-erp/internal/audit/postgres"
	"github.com/wattline/contractor-erp/internal/auth"
	"github.com/wattline/contractor-erp/internal/directory"
	directoryPostgres "github.com/wattline/contractor-erp/internal/directory/postgres"
	"github.com/wattline/contractor-erp/internal/timeentry"
	timeentryPostgres "github.com/wattline/contractor-erp/internal/timeentry/postgres"
)

var _ = Describe("TimeEntry Handler Integration", func() {
	var (
		db      *gorm.DB
		service *timeentry.Service
		handler *timeentry.Handler
		router  *chi.Mux
		actor   *auth.Actor
	)

	doRequest := func(method, target string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, target, &buf)
		if actor != nil {
			req = req.WithContext(auth.ContextWithActor(req.Context(), actor))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	createBody := func() map[string]any {
		return map[string]any{
			"user_id":   7,
			"work_date": "2025-03-10T00:00:00Z",
			"category_hours": map[string]any{
				"straight_time":        "8",
				"straight_time_travel": "0.5",
				"overtime":             "2",
			},
			"total_hours":  "10.5",
			"regular_rate": "25",
		}
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&timeentry.TimeEntry{}, &audit.Log{}, &directory.Job{})
		Expect(err).NotTo(HaveOccurred())

		job := &directory.Job{JobNumber: "24-1017", Title: "Riverside substation retrofit", Status: "active"}
		Expect(db.Create(job).Error).To(Succeed())

		entryRepo := timeentryPostgres.NewTimeEntryRepository(db)
		auditRepo := auditPostgres.NewAuditRepository(db)
		jobRepo := directoryPostgres.NewJobRepository(db)
		service = timeentry.NewService(entryRepo, auditRepo, jobRepo, 24, slogger)
		handler = timeentry.NewHandler(service)

		actor = &auth.Actor{ID: 42, Name: "Dana Whitfield", Email: "dana@wattline.test"}

		router = chi.NewRouter()
		router.Post("/time-entries", handler.CreateTimeEntry)
		router.Get("/time-entries", handler.ListTimeEntries)
		router.Get("/time-entries/{id}", handler.GetTimeEntry)
		router.Delete("/time-entries/{id}", handler.DeleteTimeEntry)
	})

	Describe("POST /time-entries", func() {
		It("creates a completed entry with classified totals and pay", func() {
			w := doRequest(http.MethodPost, "/time-entries", createBody())

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

			var entry timeentry.TimeEntry
			Expect(json.NewDecoder(w.Body).Decode(&entry)).To(Succeed())
			Expect(entry.ID).NotTo(BeZero())
			Expect(entry.Status).To(Equal(timeentry.StatusCompleted))
			Expect(entry.Version).To(Equal(int64(1)))
			Expect(entry.TotalHours.String()).To(Equal("10.5"))
			Expect(entry.TotalPay.StringFixed(2)).To(Equal("287.50"))
		})

		It("falls back to the authenticated actor when no user is supplied", func() {
			body := createBody()
			delete(body, "user_id")

			w := doRequest(http.MethodPost, "/time-entries", body)
			Expect(w.Code).To(Equal(http.StatusCreated))

			var entry timeentry.TimeEntry
			Expect(json.NewDecoder(w.Body).Decode(&entry)).To(Succeed())
			Expect(entry.UserID).To(Equal(actor.ID))
		})

		It("rejects a total that disagrees with the category breakdown", func() {
			body := createBody()
			body["total_hours"] = "9"

			w := doRequest(http.MethodPost, "/time-entries", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest))

			var resp internal.Response
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Error.Code).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("rejects an entry charged to a job that does not exist", func() {
			body := createBody()
			body["job_id"] = 999

			w := doRequest(http.MethodPost, "/time-entries", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects requests with no authenticated actor", func() {
			actor = nil
			w := doRequest(http.MethodPost, "/time-entries", createBody())
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("GET /time-entries/{id}", func() {
		It("returns a stored entry", func() {
			created := doRequest(http.MethodPost, "/time-entries", createBody())
			Expect(created.Code).To(Equal(http.StatusCreated))

			var entry timeentry.TimeEntry
			Expect(json.NewDecoder(created.Body).Decode(&entry)).To(Succeed())

			w := doRequest(http.MethodGet, fmt.Sprintf("/time-entries/%d", entry.ID), nil)
			Expect(w.Code).To(Equal(http.StatusOK))

			var fetched timeentry.TimeEntry
			Expect(json.NewDecoder(w.Body).Decode(&fetched)).To(Succeed())
			Expect(fetched.ID).To(Equal(entry.ID))
			Expect(fetched.TotalPay.Equal(entry.TotalPay)).To(BeTrue())
		})

		It("returns 404 for an unknown entry", func() {
			w := doRequest(http.MethodGet, "/time-entries/9999", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("rejects a non-numeric id", func() {
			w := doRequest(http.MethodGet, "/time-entries/abc", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /time-entries", func() {
		BeforeEach(func() {
			for _, userID := range []int64{7, 7, 8} {
				body := createBody()
				body["user_id"] = userID
				Expect(doRequest(http.MethodPost, "/time-entries", body).Code).To(Equal(http.StatusCreated))
			}
		})

		It("lists all entries", func() {
			w := doRequest(http.MethodGet, "/time-entries", nil)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp struct {
				TimeEntries []*timeentry.TimeEntry `json:"time_entries"`
				Count       int                    `json:"count"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Count).To(Equal(3))
		})

		It("narrows by user", func() {
			w := doRequest(http.MethodGet, "/time-entries?user_id=8", nil)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp struct {
				TimeEntries []*timeentry.TimeEntry `json:"time_entries"`
				Count       int                    `json:"count"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Count).To(Equal(1))
			Expect(resp.TimeEntries[0].UserID).To(Equal(int64(8)))
		})

		It("rejects an unknown status filter", func() {
			w := doRequest(http.MethodGet, "/time-entries?status=pending", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("DELETE /time-entries/{id}", func() {
		It("deletes a completed entry", func() {
			created := doRequest(http.MethodPost, "/time-entries", createBody())
			var entry timeentry.TimeEntry
			Expect(json.NewDecoder(created.Body).Decode(&entry)).To(Succeed())

			w := doRequest(http.MethodDelete, fmt.Sprintf("/time-entries/%d", entry.ID), nil)
			Expect(w.Code).To(Equal(http.StatusNoContent))

			Expect(doRequest(http.MethodGet, fmt.Sprintf("/time-entries/%d", entry.ID), nil).Code).
				To(Equal(http.StatusNotFound))
		})

		It("refuses to delete an entry already in the approval pipeline", func() {
			created := doRequest(http.MethodPost, "/time-entries", createBody())
			var entry timeentry.TimeEntry
			Expect(json.NewDecoder(created.Body).Decode(&entry)).To(Succeed())

			_, err := service.ProcessBatch([]int64{entry.ID}, timeentry.ActionSubmit, actor.ID, "")
			Expect(err).NotTo(HaveOccurred())

			w := doRequest(http.MethodDelete, fmt.Sprintf("/time-entries/%d", entry.ID), nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
