package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AzielCF/az-insights/ui/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the research MCP server using SSE",
	Long:  `Start a Model Context Protocol server over Server-Sent Events so AI agents can search research and manage the token-budgeted context.`,
	Run:   mcpServer,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("port", "", "Port for the SSE MCP server (default from MCP_PORT or 8080)")
	mcpCmd.Flags().String("host", "", "Host for the SSE MCP server (default from MCP_HOST or localhost)")
}

func mcpServer(cmd *cobra.Command, _ []string) {
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.MCP.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.MCP.Host = host
	}

	initApp()

	mcpServer := server.NewMCPServer(
		"Insights Research MCP Server",
		cfg.App.Version,
		server.WithToolCapabilities(true),
	)

	contextHandler := mcp.InitMcpContext(contextManager)
	contextHandler.AddContextTools(mcpServer)

	researchHandler := mcp.InitMcpResearch(searchService)
	researchHandler.AddResearchTools(mcpServer)

	sseServer := server.NewSSEServer(
		mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://%s:%s", cfg.MCP.Host, cfg.MCP.Port)),
		server.WithKeepAlive(true),
	)

	addr := fmt.Sprintf("%s:%s", cfg.MCP.Host, cfg.MCP.Port)
	logrus.Printf("Starting research MCP SSE server on %s", addr)
	logrus.Printf("SSE endpoint: http://%s/sse", addr)
	logrus.Printf("Message endpoint: http://%s/message", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[MCP] Reception of termination signal, shutting down gracefully...")
		StopApp()
		os.Exit(0)
	}()

	if err := sseServer.Start(addr); err != nil {
		logrus.Fatalf("Failed to start SSE server: %v", err)
	}
}
