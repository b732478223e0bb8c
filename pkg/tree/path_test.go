package tree_test

import (
	. "github.com/mandelsoft/widgy/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/widgy/pkg/tree"
)

var _ = Describe("path", func() {
	It("encodes steps", func() {
		Expect(Must(tree.EncodeStep(1))).To(Equal("0001"))
		Expect(Must(tree.EncodeStep(36))).To(Equal("0010"))
		Expect(Must(tree.EncodeStep(tree.MaxStep))).To(Equal("ZZZZ"))
		Expect(Must(tree.DecodeStep("0010"))).To(Equal(36))
	})

	It("rejects unencodable steps", func() {
		_, err := tree.EncodeStep(0)
		Expect(err).To(MatchError(tree.ErrPathOverflow))
		_, err = tree.EncodeStep(tree.MaxStep + 1)
		Expect(err).To(MatchError(tree.ErrPathOverflow))
	})

	It("validates paths", func() {
		Expect(tree.ValidPath("0001")).To(BeTrue())
		Expect(tree.ValidPath("00010A0Z")).To(BeTrue())
		Expect(tree.ValidPath("")).To(BeFalse())
		Expect(tree.ValidPath("001")).To(BeFalse())
		Expect(tree.ValidPath("0000")).To(BeFalse())
		Expect(tree.ValidPath("0001a001")).To(BeFalse())
	})

	It("derives structure", func() {
		Expect(tree.Depth("0001")).To(Equal(0))
		Expect(tree.Depth("000100020003")).To(Equal(2))
		Expect(tree.ParentPath("000100020003")).To(Equal("00010002"))
		Expect(tree.ParentPath("0001")).To(Equal(""))
		Expect(tree.RootPath("000100020003")).To(Equal("0001"))
		Expect(tree.LastStep("000100020010")).To(Equal(36))
		Expect(tree.IsDescendant("00010002", "0001")).To(BeTrue())
		Expect(tree.IsDescendant("0001", "0001")).To(BeFalse())
		Expect(tree.IsDescendant("00020001", "0001")).To(BeFalse())
		Expect(tree.Relative("000100020003", "0001")).To(Equal("00020003"))
		Expect(tree.Relative("0001", "0001")).To(Equal(""))
	})
})
