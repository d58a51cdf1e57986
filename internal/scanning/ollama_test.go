package scanning

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server *ghttp.Server
		vision *Ollama
		data   *InvoiceData
		err    error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		vision = NewOllama(server.URL(), "llava", 300, 0)
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		imagePath := writeTestPNG(GinkgoT().TempDir(), "invoice.png")
		data, err = vision.ExtractInvoice(context.Background(), imagePath)
	})

	When("the model returns the two fields", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
					Message: ollamaMessage{Role: "assistant", Content: `{"company_name":"Globex","amount":"1,234.50"}`},
					Done:    true,
				}),
			))
		})

		It("should return the parsed fields", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(data.CompanyName).To(Equal("Globex"))
			Expect(data.Amount).To(Equal("1,234.50"))
		})
	})

	When("the API returns a non-200 status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, "model not found"))
		})

		It("returns an ExtractionError", func() {
			var extractionErr *ExtractionError
			Expect(errors.As(err, &extractionErr)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("status 404"))
		})
	})
})
