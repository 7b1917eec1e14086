package timeentry_test

import (
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wattline/contractor-erp/internal"
	"github.com/wattline/contractor-erp/internal/audit"
	"github.com/wattline/contractor-erp/internal/directory"
	"github.com/wattline/contractor-erp/internal/timeentry"
)

// mockStore backs both the entry repository and the audit repository, with
// snapshot/restore to mimic transaction rollback.
type mockStore struct {
	entries     map[int64]*timeentry.TimeEntry
	auditLogs   []*audit.Log
	nextID      int64
	createError error
	getError    error
}

func newMockStore() *mockStore {
	return &mockStore{
		entries: make(map[int64]*timeentry.TimeEntry),
		nextID:  1,
	}
}

func (m *mockStore) Create(entry *timeentry.TimeEntry) error {
	if m.createError != nil {
		return m.createError
	}
	entry.ID = m.nextID
	m.nextID++
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockStore) GetByID(id int64) (*timeentry.TimeEntry, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	entry, ok := m.entries[id]
	if !ok {
		return nil, internal.ErrTimeEntryNotFound
	}
	copied := *entry
	return &copied, nil
}

func (m *mockStore) List(filter timeentry.Filter) ([]*timeentry.TimeEntry, error) {
	var out []*timeentry.TimeEntry
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockStore) UpdateTransition(entry *timeentry.TimeEntry, expectedVersion int64) error {
	stored, ok := m.entries[entry.ID]
	if !ok || stored.Version != expectedVersion {
		return internal.ErrConcurrentEdit
	}
	copied := *entry
	copied.Version = expectedVersion + 1
	m.entries[entry.ID] = &copied
	return nil
}

func (m *mockStore) Delete(id int64) error {
	stored, ok := m.entries[id]
	if !ok {
		return internal.ErrTimeEntryNotFound
	}
	if !stored.CanDelete() {
		return internal.ErrCannotDeleteEntry
	}
	delete(m.entries, id)
	return nil
}

func (m *mockStore) InTransaction(fn func(repo timeentry.Repository, auditRepo audit.Repository) error) error {
	snapshot := make(map[int64]*timeentry.TimeEntry, len(m.entries))
	for id, e := range m.entries {
		copied := *e
		snapshot[id] = &copied
	}
	auditLen := len(m.auditLogs)

	if err := fn(m, m); err != nil {
		m.entries = snapshot
		m.auditLogs = m.auditLogs[:auditLen]
		return err
	}
	return nil
}

func (m *mockStore) Append(log *audit.Log) error {
	log.ID = int64(len(m.auditLogs) + 1)
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func (m *mockStore) ListByTimeEntry(timeEntryID int64) ([]*audit.Log, error) {
	var out []*audit.Log
	for _, l := range m.auditLogs {
		if l.TimeEntryID == timeEntryID {
			out = append(out, l)
		}
	}
	return out, nil
}

// mockJobs resolves only the job IDs it was seeded with.
type mockJobs struct {
	jobs map[int64]*directory.Job
}

func (m *mockJobs) Get(id int64) (*directory.Job, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, internal.NewNotFoundError("job not found", internal.ErrCodeUnknownJob)
	}
	return job, nil
}

func (m *mockStore) seedEntry(status timeentry.Status) *timeentry.TimeEntry {
	entry := &timeentry.TimeEntry{
		ID:       m.nextID,
		UserID:   7,
		WorkDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		CategoryHours: timeentry.CategoryHours{
			StraightTime: d("8"),
		},
		TotalHours:         d("8"),
		RegularHours:       d("8"),
		AppliedRegularRate: d("25"),
		AppliedTravelRate:  d("25"),
		TotalPay:           d("200"),
		Status:             status,
		Version:            1,
	}
	m.nextID++
	m.entries[entry.ID] = entry
	return entry
}

var _ = Describe("TimeEntryService", func() {
	var (
		store   *mockStore
		jobs    *mockJobs
		service *timeentry.Service
	)

	BeforeEach(func() {
		store = newMockStore()
		jobs = &mockJobs{jobs: map[int64]*directory.Job{
			12: {ID: 12, JobNumber: "24-1017", Title: "Riverside substation retrofit", Status: "active"},
		}}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = timeentry.NewService(store, store, jobs, 24, logger)
	})

	Describe("Create", func() {
		It("should classify, compute pay and store the entry completed", func() {
			dto := timeentry.CreateTimeEntryDTO{
				UserID:   7,
				WorkDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
				CategoryHours: timeentry.CategoryHours{
					StraightTime:       d("8"),
					StraightTimeTravel: d("0.5"),
					Overtime:           d("2"),
				},
				TotalHours:  d("10.5"),
				RegularRate: d("25"),
			}

			entry, err := service.Create(dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(entry.Status).To(Equal(timeentry.StatusCompleted))
			Expect(entry.Version).To(Equal(int64(1)))
			// 8x25 + 0.5x25 + 2x37.5
			Expect(entry.TotalPay.Equal(d("287.50"))).To(BeTrue())
			Expect(entry.RegularHours.Equal(d("8.5"))).To(BeTrue())
			Expect(entry.OvertimeHours.Equal(d("2"))).To(BeTrue())
			// travel rate defaults to the regular rate
			Expect(entry.AppliedTravelRate.Equal(d("25"))).To(BeTrue())
		})

		It("should return the stored breakdown total unchanged on read back", func() {
			dto := timeentry.CreateTimeEntryDTO{
				UserID:   7,
				WorkDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
				CategoryHours: timeentry.CategoryHours{
					StraightTime:     d("7.25"),
					OvertimeTravel:   d("1.75"),
					DoubleTimeTravel: d("0.50"),
				},
				TotalHours:  d("9.50"),
				RegularRate: d("31.40"),
			}

			created, err := service.Create(dto)
			Expect(err).ToNot(HaveOccurred())

			fetched, err := service.GetByID(created.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(fetched.TotalHours.Equal(fetched.CategoryHours.Sum())).To(BeTrue())
			Expect(fetched.TotalHours.Equal(d("9.50"))).To(BeTrue())
		})

		It("should reject a total that disagrees with the breakdown", func() {
			dto := timeentry.CreateTimeEntryDTO{
				UserID:        7,
				WorkDate:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
				CategoryHours: timeentry.CategoryHours{StraightTime: d("8")},
				TotalHours:    d("9"),
				RegularRate:   d("25"),
			}

			_, err := service.Create(dto)

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			details, ok := appErr.Details.(internal.ValidationErrors)
			Expect(ok).To(BeTrue())
			Expect(details.Errors[0].Field).To(Equal("total_hours"))
			Expect(details.Errors[0].Code).To(Equal(string(internal.ErrCodeHoursMismatch)))
			Expect(store.entries).To(BeEmpty())
		})

		It("should accept an entry charged to a known job", func() {
			jobID := int64(12)
			dto := timeentry.CreateTimeEntryDTO{
				UserID:        7,
				JobID:         &jobID,
				WorkDate:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
				CategoryHours: timeentry.CategoryHours{StraightTime: d("8")},
				TotalHours:    d("8"),
				RegularRate:   d("25"),
			}

			entry, err := service.Create(dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(*entry.JobID).To(Equal(jobID))
		})

		It("should reject an entry charged to an unknown job", func() {
			jobID := int64(999)
			dto := timeentry.CreateTimeEntryDTO{
				UserID:        7,
				JobID:         &jobID,
				WorkDate:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
				CategoryHours: timeentry.CategoryHours{StraightTime: d("8")},
				TotalHours:    d("8"),
				RegularRate:   d("25"),
			}

			_, err := service.Create(dto)

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			details, ok := appErr.Details.(internal.ValidationErrors)
			Expect(ok).To(BeTrue())
			Expect(details.Errors[0].Field).To(Equal("job_id"))
			Expect(details.Errors[0].Code).To(Equal(string(internal.ErrCodeUnknownJob)))
			Expect(store.entries).To(BeEmpty())
		})

		It("should use the distinct travel rate when supplied", func() {
			travel := d("18")
			dto := timeentry.CreateTimeEntryDTO{
				UserID:   7,
				WorkDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
				CategoryHours: timeentry.CategoryHours{
					StraightTime:       d("8"),
					StraightTimeTravel: d("1"),
				},
				TotalHours:  d("9"),
				RegularRate: d("30"),
				TravelRate:  &travel,
			}

			entry, err := service.Create(dto)

			Expect(err).ToNot(HaveOccurred())
			// 8x30 + 1x18
			Expect(entry.TotalPay.Equal(d("258"))).To(BeTrue())
			Expect(entry.AppliedTravelRate.Equal(travel)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("should delete a completed entry", func() {
			entry := store.seedEntry(timeentry.StatusCompleted)

			Expect(service.Delete(entry.ID)).To(Succeed())
			Expect(store.entries).ToNot(HaveKey(entry.ID))
		})

		It("should refuse to delete a submitted entry", func() {
			entry := store.seedEntry(timeentry.StatusSubmitted)

			err := service.Delete(entry.ID)

			Expect(err).To(MatchError(internal.ErrCannotDeleteEntry))
			Expect(store.entries).To(HaveKey(entry.ID))
		})
	})

	Describe("ProcessBatch", func() {
		It("should treat an empty selection as a zero-count success", func() {
			count, err := service.ProcessBatch(nil, timeentry.ActionApprove, 99, "")

			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(BeZero())
		})

		It("should reject an illegal transition without writing an audit row", func() {
			entry := store.seedEntry(timeentry.StatusDraft)

			_, err := service.ProcessBatch([]int64{entry.ID}, timeentry.ActionApprove, 99, "")

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeIllegalTransition))
			Expect(appErr.Message).To(ContainSubstring("draft"))
			Expect(store.entries[entry.ID].Status).To(Equal(timeentry.StatusDraft))
			Expect(store.auditLogs).To(BeEmpty())
		})

		It("should roll back the whole batch when one entry is ineligible", func() {
			eligible := make([]*timeentry.TimeEntry, 5)
			for i := range eligible {
				eligible[i] = store.seedEntry(timeentry.StatusSubmitted)
			}
			terminal := store.seedEntry(timeentry.StatusApproved)

			ids := []int64{
				eligible[0].ID, eligible[1].ID, eligible[2].ID,
				eligible[3].ID, eligible[4].ID, terminal.ID,
			}
			count, err := service.ProcessBatch(ids, timeentry.ActionApprove, 99, "")

			Expect(err).To(HaveOccurred())
			Expect(count).To(BeZero())
			for _, e := range eligible {
				Expect(store.entries[e.ID].Status).To(Equal(timeentry.StatusSubmitted))
				Expect(store.entries[e.ID].Version).To(Equal(int64(1)))
			}
			Expect(store.entries[terminal.ID].Status).To(Equal(timeentry.StatusApproved))
			Expect(store.auditLogs).To(BeEmpty())
		})

		It("should abort the batch when an entry id does not exist", func() {
			entry := store.seedEntry(timeentry.StatusSubmitted)

			_, err := service.ProcessBatch([]int64{entry.ID, 9999}, timeentry.ActionApprove, 99, "")

			Expect(err).To(MatchError(internal.ErrTimeEntryNotFound))
			Expect(store.entries[entry.ID].Status).To(Equal(timeentry.StatusSubmitted))
			Expect(store.auditLogs).To(BeEmpty())
		})

		It("should commit state, metadata and audit rows together on success", func() {
			first := store.seedEntry(timeentry.StatusSubmitted)
			second := store.seedEntry(timeentry.StatusSubmitted)

			count, err := service.ProcessBatch([]int64{first.ID, second.ID}, timeentry.ActionApprove, 42, "looks right")

			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(2))
			for _, id := range []int64{first.ID, second.ID} {
				stored := store.entries[id]
				Expect(stored.Status).To(Equal(timeentry.StatusApproved))
				Expect(stored.Version).To(Equal(int64(2)))
				Expect(stored.ApprovedAt).ToNot(BeNil())
				Expect(*stored.ApprovedBy).To(Equal(int64(42)))
				Expect(stored.Notes).To(Equal("looks right"))
			}
			Expect(store.auditLogs).To(HaveLen(2))
			Expect(store.auditLogs[0].OldStatus).To(Equal("submitted"))
			Expect(store.auditLogs[0].NewStatus).To(Equal("approved"))
			Expect(store.auditLogs[0].PerformedBy).To(Equal(int64(42)))
		})

		It("should refuse a second run over an already-processed entry", func() {
			entry := store.seedEntry(timeentry.StatusSubmitted)

			count, err := service.ProcessBatch([]int64{entry.ID}, timeentry.ActionApprove, 99, "")
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(1))

			// a duplicate bulk run must fail, not silently succeed
			_, err = service.ProcessBatch([]int64{entry.ID}, timeentry.ActionApprove, 99, "")
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeIllegalTransition))
			Expect(store.auditLogs).To(HaveLen(1))
		})
	})

	Describe("Resubmission cycle", func() {
		It("should record three audit rows matching each hop in order", func() {
			entry := store.seedEntry(timeentry.StatusCompleted)

			Expect(service.Submit(entry.ID, 7)).To(Succeed())
			Expect(service.Reject(entry.ID, 42, "missing job number")).To(Succeed())
			Expect(service.Submit(entry.ID, 7)).To(Succeed())

			logs, err := service.AuditTrail(entry.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(logs).To(HaveLen(3))

			hops := [][2]string{
				{"completed", "submitted"},
				{"submitted", "rejected"},
				{"rejected", "submitted"},
			}
			for i, hop := range hops {
				Expect(logs[i].OldStatus).To(Equal(hop[0]))
				Expect(logs[i].NewStatus).To(Equal(hop[1]))
			}
			Expect(logs[1].Notes).To(Equal("missing job number"))
			Expect(store.entries[entry.ID].Status).To(Equal(timeentry.StatusSubmitted))
			Expect(store.entries[entry.ID].Version).To(Equal(int64(4)))
		})
	})

	Describe("Payment hand-off", func() {
		It("should mark an approved entry paid and treat paid as terminal", func() {
			entry := store.seedEntry(timeentry.StatusApproved)

			Expect(service.MarkPaid(entry.ID, 42)).To(Succeed())
			Expect(store.entries[entry.ID].Status).To(Equal(timeentry.StatusPaid))

			err := service.Approve(entry.ID, 42, "")
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeIllegalTransition))
		})
	})

	Describe("AuditTrail", func() {
		It("should fail for an unknown entry", func() {
			_, err := service.AuditTrail(404)
			Expect(err).To(MatchError(internal.ErrTimeEntryNotFound))
		})
	})

	Describe("repository failures", func() {
		It("should propagate create failures", func() {
			store.createError = errors.New("connection reset")

			_, err := service.Create(timeentry.CreateTimeEntryDTO{
				UserID:        7,
				WorkDate:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
				CategoryHours: timeentry.CategoryHours{StraightTime: d("8")},
				TotalHours:    d("8"),
				RegularRate:   d("25"),
			})

			Expect(err).To(MatchError("connection reset"))
		})
	})
})
