package invoice

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveRecord", func() {
		var (
			record *Record
			err    error
		)

		BeforeEach(func() {
			record = &Record{
				ID:            "test-id",
				SourceFile:    "scan.jpg",
				ProcessedFile: "ACME -- 99_00.pdf",
				ArchivedFile:  "scan.jpg",
				CompanyName:   "Acme",
				Amount:        "99.00",
				Source:        "vision",
				Status:        StatusProcessed,
				CreatedAt:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			}
		})

		JustBeforeEach(func() {
			err = db.SaveRecord(record)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should save the record to the database", func() {
			saved, getErr := db.GetRecord("test-id")
			Expect(getErr).NotTo(HaveOccurred())
			Expect(saved.ProcessedFile).To(Equal("ACME -- 99_00.pdf"))
			Expect(saved.Status).To(Equal(StatusProcessed))
			Expect(saved.CreatedAt.Equal(record.CreatedAt)).To(BeTrue())
		})

		It("should persist across reopen", func() {
			Expect(db.Close()).To(Succeed())
			reopened, openErr := NewBoltDB(dbPath)
			Expect(openErr).NotTo(HaveOccurred())
			db = reopened

			saved, getErr := db.GetRecord("test-id")
			Expect(getErr).NotTo(HaveOccurred())
			Expect(saved.SourceFile).To(Equal("scan.jpg"))
		})
	})

	Describe("GetRecord", func() {
		When("the record does not exist", func() {
			It("returns an error", func() {
				_, err := db.GetRecord("missing")
				Expect(err).To(MatchError(ContainSubstring("record not found")))
			})
		})
	})

	Describe("ListRecords", func() {
		When("there are no records", func() {
			It("returns an empty list", func() {
				records, err := db.ListRecords()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(BeEmpty())
			})
		})

		When("there are several records", func() {
			BeforeEach(func() {
				base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
				Expect(db.SaveRecord(&Record{ID: "zzz", SourceFile: "first.jpg", Status: StatusFailed, CreatedAt: base})).To(Succeed())
				Expect(db.SaveRecord(&Record{ID: "aaa", SourceFile: "second.jpg", Status: StatusProcessed, CreatedAt: base.Add(time.Minute)})).To(Succeed())
			})

			It("returns them oldest first", func() {
				records, err := db.ListRecords()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(2))
				Expect(records[0].SourceFile).To(Equal("first.jpg"))
				Expect(records[1].SourceFile).To(Equal("second.jpg"))
			})
		})
	})
})
