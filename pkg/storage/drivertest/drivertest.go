// Package drivertest holds the shared ginkgo specs every storage.Driver
// implementation must pass.
package drivertest

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/innerself/pkg/storage"
)

// DescribeDriver registers the conformance tests. newDriver is called once
// per test and the returned driver is closed afterwards.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		ctx    context.Context
		driver storage.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
		DeferCleanup(func() {
			Expect(driver.Close()).To(Succeed())
		})
	})

	It("returns NotFoundError for missing keys", func() {
		_, err := driver.Load(ctx, "missing")
		Expect(err).To(MatchError(storage.NotFoundError{Key: "missing"}))
		Expect(storage.IsNotFound(err)).To(BeTrue())
	})

	It("saves and loads a blob", func() {
		Expect(driver.Save(ctx, "innerself", []byte(`{"version":1}`))).To(Succeed())

		data, err := driver.Load(ctx, "innerself")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"version":1}`))
	})

	It("overwrites on repeated saves", func() {
		Expect(driver.Save(ctx, "k", []byte("first"))).To(Succeed())
		Expect(driver.Save(ctx, "k", []byte("second"))).To(Succeed())

		data, err := driver.Load(ctx, "k")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("second"))
	})

	It("keeps keys independent", func() {
		Expect(driver.Save(ctx, "a", []byte("A"))).To(Succeed())
		Expect(driver.Save(ctx, "b", []byte("B"))).To(Succeed())

		data, err := driver.Load(ctx, "a")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("A"))
	})

	It("deletes keys idempotently", func() {
		Expect(driver.Save(ctx, "k", []byte("v"))).To(Succeed())
		Expect(driver.Delete(ctx, "k")).To(Succeed())
		Expect(driver.Delete(ctx, "k")).To(Succeed())

		_, err := driver.Load(ctx, "k")
		Expect(storage.IsNotFound(err)).To(BeTrue())
	})

	It("handles concurrent saves", func() {
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				Expect(driver.Save(ctx, "k", []byte("v"))).To(Succeed())
			}()
		}
		wg.Wait()

		data, err := driver.Load(ctx, "k")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("v"))
	})
}
