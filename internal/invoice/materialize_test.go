package invoice

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Layout", func() {
	var (
		root   string
		layout *Layout
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		var err error
		layout, err = NewLayout(root)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewLayout", func() {
		It("creates the raw and processed folders", func() {
			Expect(filepath.Join(root, "raw")).To(BeADirectory())
			Expect(filepath.Join(root, "processed")).To(BeADirectory())
		})

		It("is idempotent", func() {
			Expect(os.WriteFile(filepath.Join(root, "raw", "keep.jpg"), []byte("x"), 0644)).To(Succeed())
			_, err := NewLayout(root)
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Join(root, "raw", "keep.jpg")).To(BeAnExistingFile())
		})
	})

	Describe("HistoryPath", func() {
		It("points inside the processed folder", func() {
			Expect(HistoryPath(root)).To(Equal(filepath.Join(root, "processed", ".invoice-history.db")))
		})

		It("is not listed as a document", func() {
			db, err := NewBoltDB(HistoryPath(root))
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Close()).To(Succeed())

			docs, err := layout.Documents()
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeEmpty())
		})
	})

	Describe("Documents", func() {
		It("lists supported files only, non-recursively", func() {
			writePNG(filepath.Join(root, "b.png"))
			writeJPEG(filepath.Join(root, "a.JPEG"))
			writePDF(filepath.Join(root, "processed", "old.pdf"))
			Expect(os.WriteFile(filepath.Join(root, "readme.md"), []byte("x"), 0644)).To(Succeed())

			paths, err := layout.Documents()
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(Equal([]string{
				filepath.Join(root, "a.JPEG"),
				filepath.Join(root, "b.png"),
			}))
		})
	})

	Describe("Materialize", func() {
		var target string

		BeforeEach(func() {
			target = filepath.Join(root, "processed", "ACME -- 1_00.pdf")
		})

		When("the source is an image", func() {
			var src string

			BeforeEach(func() {
				src = filepath.Join(root, "scan.jpg")
				writeJPEG(src)
			})

			It("writes a PDF at the target", func() {
				path, err := layout.Materialize(src, "ACME -- 1_00.pdf")
				Expect(err).NotTo(HaveOccurred())
				Expect(path).To(Equal(target))

				data, readErr := os.ReadFile(target)
				Expect(readErr).NotTo(HaveOccurred())
				Expect(string(data)).To(HavePrefix("%PDF-"))
			})

			It("overwrites an existing target every time", func() {
				for i := 0; i < 2; i++ {
					Expect(os.WriteFile(target, []byte("stale"), 0644)).To(Succeed())
					_, err := layout.Materialize(src, "ACME -- 1_00.pdf")
					Expect(err).NotTo(HaveOccurred())

					data, readErr := os.ReadFile(target)
					Expect(readErr).NotTo(HaveOccurred())
					Expect(string(data)).To(HavePrefix("%PDF-"))
				}
			})

			It("leaves the source in place", func() {
				_, err := layout.Materialize(src, "ACME -- 1_00.pdf")
				Expect(err).NotTo(HaveOccurred())
				Expect(src).To(BeAnExistingFile())
			})
		})

		When("the image cannot be decoded", func() {
			It("returns an error and writes nothing", func() {
				src := filepath.Join(root, "broken.png")
				Expect(os.WriteFile(src, []byte("not a png"), 0644)).To(Succeed())

				_, err := layout.Materialize(src, "ACME -- 1_00.pdf")
				Expect(err).To(MatchError(ContainSubstring("converting image to PDF")))
				Expect(target).NotTo(BeAnExistingFile())
			})
		})

		When("the source is a PDF", func() {
			var src string

			BeforeEach(func() {
				src = filepath.Join(root, "invoice.pdf")
				writePDF(src)
			})

			It("copies the PDF when the target does not exist", func() {
				_, err := layout.Materialize(src, "ACME -- 1_00.pdf")
				Expect(err).NotTo(HaveOccurred())

				want, _ := os.ReadFile(src)
				got, readErr := os.ReadFile(target)
				Expect(readErr).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			})

			It("leaves an existing target unchanged", func() {
				Expect(os.WriteFile(target, []byte("existing"), 0644)).To(Succeed())

				for i := 0; i < 2; i++ {
					_, err := layout.Materialize(src, "ACME -- 1_00.pdf")
					Expect(err).NotTo(HaveOccurred())
				}

				got, readErr := os.ReadFile(target)
				Expect(readErr).NotTo(HaveOccurred())
				Expect(string(got)).To(Equal("existing"))
			})
		})

		When("the PDF is corrupt", func() {
			It("returns an error", func() {
				src := filepath.Join(root, "corrupt.pdf")
				Expect(os.WriteFile(src, []byte("this is not a pdf at all"), 0644)).To(Succeed())

				_, err := layout.Materialize(src, "ACME -- 1_00.pdf")
				Expect(err).To(MatchError(ContainSubstring("copying PDF")))
			})
		})
	})

	Describe("Archive", func() {
		It("moves the original into raw, keeping its name", func() {
			src := filepath.Join(root, "Scan 001.JPG")
			writeJPEG(src)

			dest, err := layout.Archive(src)
			Expect(err).NotTo(HaveOccurred())
			Expect(dest).To(Equal(filepath.Join(root, "raw", "Scan 001.JPG")))
			Expect(dest).To(BeAnExistingFile())
			Expect(src).NotTo(BeAnExistingFile())
		})
	})
})
