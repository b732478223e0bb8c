package runtime_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/widgy/pkg/runtime"
)

type Text struct {
	runtime.ObjectMeta `json:",inline"`
	Text               string `json:"text,omitempty"`
}

type Count struct {
	runtime.ObjectMeta `json:",inline"`
	Count              int `json:"count"`
}

var _ = Describe("scheme", func() {
	var scheme runtime.Scheme[runtime.Object]

	BeforeEach(func() {
		scheme = runtime.NewYAMLScheme[runtime.Object]()
		runtime.MustRegister[Text, *Text, runtime.Object](scheme, "text")
		runtime.MustRegister[Count, *Count, runtime.Object](scheme, "count")
	})

	It("lists types", func() {
		Expect(scheme.TypeNames()).To(Equal([]string{"count", "text"}))
		Expect(scheme.HasType("text")).To(BeTrue())
		Expect(scheme.HasType("other")).To(BeFalse())
	})

	It("creates objects", func() {
		o, err := scheme.CreateObject("text", func(o runtime.Object) { o.(*Text).Text = "init" })
		Expect(err).To(Succeed())
		Expect(o).To(Equal(&Text{runtime.ObjectMeta{"text"}, "init"}))
	})

	It("decodes self describing documents", func() {
		o, err := scheme.Decode([]byte("type: count\ncount: 5\n"))
		Expect(err).To(Succeed())
		Expect(o).To(Equal(&Count{runtime.ObjectMeta{"count"}, 5}))
	})

	It("decodes json for explicit type", func() {
		o, err := scheme.DecodeAs("text", []byte(`{"text":"hello"}`))
		Expect(err).To(Succeed())
		Expect(o).To(Equal(&Text{runtime.ObjectMeta{"text"}, "hello"}))
	})

	It("rejects unknown types", func() {
		_, err := scheme.Decode([]byte("type: other\n"))
		Expect(errors.Is(err, runtime.ErrUnknownType)).To(BeTrue())
		Expect(err).To(MatchError(`unknown object type "other"`))
	})

	It("rejects conflicting registrations", func() {
		Expect(runtime.Register[Count, *Count, runtime.Object](scheme, "text")).To(HaveOccurred())
		Expect(runtime.Register[Text, *Text, runtime.Object](scheme, "text")).To(Succeed())
	})
})
