package queues_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"vkframes/queues"
)

var _ = Describe("FamilyIndices", func() {
	It("is not complete when default constructed", func() {
		indices := queues.FamilyIndices{}
		Expect(indices.IsComplete()).To(BeFalse())
	})

	It("is not complete with only one family set", func() {
		graphicsOnly := queues.FamilyIndices{}
		graphicsOnly.Graphics.Set(0)
		Expect(graphicsOnly.IsComplete()).To(BeFalse())

		presentOnly := queues.FamilyIndices{}
		presentOnly.Present.Set(1)
		Expect(presentOnly.IsComplete()).To(BeFalse())
	})

	It("is complete when both families are set, including index zero", func() {
		indices := queues.FamilyIndices{}
		indices.Graphics.Set(0)
		indices.Present.Set(0)
		Expect(indices.IsComplete()).To(BeTrue())
		Expect(indices.SameFamily()).To(BeTrue())
		Expect(indices.Unique()).To(Equal([]uint32{0}))
	})

	It("lists distinct families once each", func() {
		indices := queues.FamilyIndices{}
		indices.Graphics.Set(2)
		indices.Present.Set(0)
		Expect(indices.SameFamily()).To(BeFalse())
		Expect(indices.Unique()).To(Equal([]uint32{2, 0}))
	})
})

var _ = Describe("FindFamilies", func() {
	It("finds a single family doing both", func() {
		indices := queues.FindFamilies([]queues.Family{
			{Graphics: false, Present: false},
			{Graphics: true, Present: true},
		})
		Expect(indices.IsComplete()).To(BeTrue())
		Expect(indices.Graphics.Get()).To(Equal(uint32(1)))
		Expect(indices.Present.Get()).To(Equal(uint32(1)))
	})

	It("combines separate graphics and present families", func() {
		indices := queues.FindFamilies([]queues.Family{
			{Graphics: true},
			{Present: true},
		})
		Expect(indices.IsComplete()).To(BeTrue())
		Expect(indices.Graphics.Get()).To(Equal(uint32(0)))
		Expect(indices.Present.Get()).To(Equal(uint32(1)))
	})

	It("stops at the first family which completes the set", func() {
		indices := queues.FindFamilies([]queues.Family{
			{Graphics: true, Present: true},
			{Graphics: true, Present: true},
		})
		Expect(indices.Graphics.Get()).To(Equal(uint32(0)))
	})

	It("stays incomplete without a present family", func() {
		indices := queues.FindFamilies([]queues.Family{
			{Graphics: true},
			{Graphics: true},
		})
		Expect(indices.IsComplete()).To(BeFalse())
		Expect(indices.Present.HasValue()).To(BeFalse())
	})
})
