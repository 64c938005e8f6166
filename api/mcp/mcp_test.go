package mcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/innerself/api/mcp"
	"github.com/papercomputeco/innerself/pkg/innerself"
	"github.com/papercomputeco/innerself/pkg/logger"
)

var _ = Describe("MCP Server", func() {
	var engine *innerself.Engine

	BeforeEach(func() {
		var err error
		engine, err = innerself.New(innerself.Options{Settings: innerself.DefaultSettings()})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when the engine is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("engine is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Engine: engine})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("creates a server with an HTTP handler", func() {
			server, err := mcp.NewServer(mcp.Config{Engine: engine, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})
	})
})
