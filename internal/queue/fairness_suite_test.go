// Copyright 2025 James Ross
package queue_test

import (
	"context"
	"testing"

	"github.com/flyingrobots/videoapi/internal/queue"
	"github.com/flyingrobots/videoapi/internal/store"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestFairnessSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "weighted fair dequeue suite")
}

var _ = Describe("weighted fair dequeue", func() {
	It("converges to the 10:5:1 service ratio within tolerance", func() {
		ctx := context.Background()
		q := queue.New(store.NewMemoryStore())

		const perQueue = 100
		for i := 0; i < perQueue; i++ {
			_, err := q.Enqueue(ctx, jobName("critical", i), store.Critical)
			Expect(err).NotTo(HaveOccurred())
			_, err = q.Enqueue(ctx, jobName("high", i), store.High)
			Expect(err).NotTo(HaveOccurred())
			_, err = q.Enqueue(ctx, jobName("normal", i), store.Normal)
			Expect(err).NotTo(HaveOccurred())
		}

		counts := map[store.Priority]int{}
		const draws = 160
		for i := 0; i < draws; i++ {
			_, priority, err := q.Dequeue(ctx)
			Expect(err).NotTo(HaveOccurred())
			counts[priority]++
		}

		// Expected ratio 10:5:1 over 160 draws is 100:50:10, each within ±10 draws.
		Expect(float64(counts[store.Critical])).To(BeNumerically("~", 100, 10))
		Expect(float64(counts[store.High])).To(BeNumerically("~", 50, 10))
		Expect(float64(counts[store.Normal])).To(BeNumerically("~", 10, 10))
	})

	It("always returns a job while any queue is non-empty", func() {
		ctx := context.Background()
		q := queue.New(store.NewMemoryStore())

		_, err := q.Enqueue(ctx, "only-normal-job", store.Normal)
		Expect(err).NotTo(HaveOccurred())

		jobID, _, err := q.Dequeue(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(jobID).To(Equal("only-normal-job"))

		jobID, _, err = q.Dequeue(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(jobID).To(Equal(""))
	})
})

func jobName(prefix string, i int) string {
	return prefix + "-" + string(rune('a'+(i%26))) + string(rune('0'+(i/26)%10))
}
