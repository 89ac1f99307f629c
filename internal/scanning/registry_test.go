package scanning

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// stubScanner is a Scanner that only records Close calls
type stubScanner struct {
	closeErr error
	closed   bool
}

func (s *stubScanner) ExtractInvoice(ctx context.Context, doc Document) (*InvoiceData, error) {
	return &InvoiceData{}, nil
}

func (s *stubScanner) SuggestImprovements(ctx context.Context, in SuggestionInput) (*Suggestions, error) {
	return &Suggestions{}, nil
}

func (s *stubScanner) Close() error {
	s.closed = true
	return s.closeErr
}

var _ = Describe("Registry", func() {
	var (
		registry *Registry
		gemini   *stubScanner
		ollama   *stubScanner
	)

	BeforeEach(func() {
		gemini = &stubScanner{}
		ollama = &stubScanner{}
		registry = NewRegistry("gemini")
		registry.Register("gemini", gemini)
		registry.Register("ollama", ollama)
	})

	Describe("Get", func() {
		It("returns the named scanner", func() {
			s, err := registry.Get("ollama")
			Expect(err).NotTo(HaveOccurred())
			Expect(s).To(BeIdenticalTo(ollama))
		})

		It("resolves the empty name to the default", func() {
			s, err := registry.Get("")
			Expect(err).NotTo(HaveOccurred())
			Expect(s).To(BeIdenticalTo(gemini))
		})

		It("returns ErrUnknownModel for unregistered names", func() {
			_, err := registry.Get("groq")
			Expect(err).To(MatchError(ErrUnknownModel))
			Expect(err).To(MatchError(ContainSubstring(`"groq"`)))
		})
	})

	It("lists models in order", func() {
		Expect(registry.Models()).To(Equal([]string{"gemini", "ollama"}))
		Expect(registry.Default()).To(Equal("gemini"))
	})

	Describe("Close", func() {
		It("closes every scanner", func() {
			Expect(registry.Close()).To(Succeed())
			Expect(gemini.closed).To(BeTrue())
			Expect(ollama.closed).To(BeTrue())
		})

		It("returns the errors", func() {
			ollama.closeErr = errors.New("busy")
			Expect(registry.Close()).To(MatchError(ContainSubstring("closing ollama: busy")))
			Expect(gemini.closed).To(BeTrue())
		})
	})
})
