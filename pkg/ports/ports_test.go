//go:build unit

package ports_test

import (
	"context"
	"net"
	"strconv"

	"github.com/animalet/devenv/pkg/ports"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ports", func() {
	Describe("SanitisePort", func() {
		DescribeTable("parsing",
			func(input string, expected int, ok bool) {
				port, valid := ports.SanitisePort(input)
				Expect(valid).To(Equal(ok))
				Expect(port).To(Equal(expected))
			},
			Entry("valid port", "3000", 3000, true),
			Entry("surrounding whitespace", " 8080 ", 8080, true),
			Entry("upper bound", "65535", 65535, true),
			Entry("empty", "", 0, false),
			Entry("not a number", "abc", 0, false),
			Entry("zero", "0", 0, false),
			Entry("negative", "-1", 0, false),
			Entry("too large", "65536", 0, false),
		)
	})

	Describe("Finder", func() {
		It("should return the seed when it is free", func() {
			finder := ports.NewFinder(func(context.Context, int) bool { return true })
			port, err := finder.GetUnusedPort(context.Background(), 3000)
			Expect(err).NotTo(HaveOccurred())
			Expect(port).To(Equal(3000))
		})

		It("should skip busy ports", func() {
			busy := map[int]bool{3000: true, 3001: true}
			finder := ports.NewFinder(func(_ context.Context, port int) bool { return !busy[port] })
			port, err := finder.GetUnusedPort(context.Background(), 3000)
			Expect(err).NotTo(HaveOccurred())
			Expect(port).To(Equal(3002))
		})

		It("should fall back to the default seed for invalid seeds", func() {
			var probed []int
			finder := ports.NewFinder(func(_ context.Context, port int) bool {
				probed = append(probed, port)
				return true
			})
			port, err := finder.GetUnusedPort(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(port).To(Equal(ports.DefaultPort))
			Expect(probed).To(Equal([]int{ports.DefaultPort}))
		})

		It("should fail when every port is taken", func() {
			finder := ports.NewFinder(func(context.Context, int) bool { return false })
			_, err := finder.GetUnusedPort(context.Background(), ports.MaxPort-2)
			Expect(err).To(MatchError(ports.ErrNoFreePort))
		})

		It("should stop on a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			finder := ports.NewFinder(func(context.Context, int) bool { return true })
			_, err := finder.GetUnusedPort(ctx, 3000)
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("GetUnusedPort", func() {
		It("should not return a port that is held by a listener", func() {
			listener, err := net.Listen("tcp", ":0")
			Expect(err).NotTo(HaveOccurred())
			defer listener.Close()
			occupied := listener.Addr().(*net.TCPAddr).Port

			Expect(ports.IsPortFree(context.Background(), occupied)).To(BeFalse())

			port, err := ports.GetUnusedPort(context.Background(), occupied)
			Expect(err).NotTo(HaveOccurred())
			Expect(port).NotTo(Equal(occupied))
			Expect(port).To(BeNumerically(">", occupied))
			Expect(strconv.Itoa(port)).To(MatchRegexp(`^\d+$`))
		})
	})
})
