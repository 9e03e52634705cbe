package hk_test

import (
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/ten-framework/ten-go/hk"
)

var _ = Describe("Housekeeper", func() {
	It("invokes a registered callback and reschedules on its returned interval", func() {
		var calls atomic.Int32
		hk.Reg("counter"+hk.NameSuffix, func() time.Duration {
			calls.Add(1)
			return 50 * time.Millisecond
		}, time.Millisecond)

		Eventually(func() int32 { return calls.Load() }, time.Second, 10*time.Millisecond).
			Should(BeNumerically(">=", 2))
		hk.Unreg("counter" + hk.NameSuffix)
	})

	It("deregisters when the callback returns UnregInterval", func() {
		var calls atomic.Int32
		hk.Reg("oneshot"+hk.NameSuffix, func() time.Duration {
			calls.Add(1)
			return hk.UnregInterval
		}, time.Millisecond)

		Eventually(func() int32 { return calls.Load() }, time.Second, 10*time.Millisecond).
			Should(Equal(int32(1)))
		Consistently(func() int32 { return calls.Load() }, 200*time.Millisecond, 20*time.Millisecond).
			Should(Equal(int32(1)))
	})
})
