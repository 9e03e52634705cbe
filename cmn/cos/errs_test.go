// Package cos provides common low-level types and utilities shared across
// this module's packages.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos_test

import (
	"errors"

	"github.com/ten-framework/ten-go/cmn/cos"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Errs", func() {
	It("de-duplicates by message", func() {
		var errs cos.Errs
		for i := 0; i < 10; i++ {
			errs.Add(errors.New("boom"))
		}
		Expect(errs.Cnt()).To(Equal(1))
	})

	It("joins multiple distinct errors", func() {
		var errs cos.Errs
		errs.Add(errors.New("first"))
		errs.Add(errors.New("second"))
		cnt, err := errs.JoinErr()
		Expect(cnt).To(Equal(2))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("UUID", func() {
	It("generates valid, distinct ids", func() {
		a, b := cos.GenUUID(), cos.GenUUID()
		Expect(a).NotTo(Equal(b))
		Expect(cos.IsValidUUID(a)).To(BeTrue())
	})

	It("rejects names that are edge-punctuated", func() {
		Expect(cos.IsAlphaNice("-leading")).To(BeFalse())
		Expect(cos.IsAlphaNice("trailing-")).To(BeFalse())
		Expect(cos.IsAlphaNice("ok-name_1")).To(BeTrue())
	})
})
