package scanning

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubRunner struct {
	name   string
	args   []string
	stdout string
	stderr string
	err    error
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.name = name
	s.args = args
	return []byte(s.stdout), []byte(s.stderr), s.err
}

var _ = Describe("Tesseract", func() {
	var runner *stubRunner

	BeforeEach(func() {
		runner = &stubRunner{stdout: "Company: Acme\n"}
	})

	It("runs the default binary and language", func() {
		text, err := NewTesseractWithRunner("", "", runner).Recognize(context.Background(), "/tmp/page.png")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Company: Acme\n"))
		Expect(runner.name).To(Equal("tesseract"))
		Expect(runner.args).To(Equal([]string{"/tmp/page.png", "stdout", "-l", "eng"}))
	})

	It("uses the configured binary and language", func() {
		_, err := NewTesseractWithRunner("/opt/bin/tesseract", "deu", runner).Recognize(context.Background(), "scan.jpg")
		Expect(err).NotTo(HaveOccurred())
		Expect(runner.name).To(Equal("/opt/bin/tesseract"))
		Expect(runner.args).To(ContainElement("deu"))
	})

	It("includes stderr in the error", func() {
		runner.err = errors.New("exit status 1")
		runner.stderr = "Error opening data file"
		_, err := NewTesseractWithRunner("", "", runner).Recognize(context.Background(), "scan.jpg")
		Expect(err).To(MatchError(ContainSubstring("Error opening data file")))
	})
})
