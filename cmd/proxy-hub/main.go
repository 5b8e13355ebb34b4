// Package main is the entrypoint for the proxy-hub server.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/morezero/proxy-hub/internal/server"
)

const usage = `Usage: proxy-hub [command]

Commands:
  serve       (default) Start the proxy hub (COMMS session, WebSocket listener, HTTP status).
  version     Print the server version.

Environment: COMMS_URL, SESSION_NAME, WS_ADDR, DATA_DIR, WORKING_DIR,
BUILTIN_EXTENSIONS_DIR, TMP_DIR, SHELL_PATH, HUB_BOOTSTRAP_FILE, HTTP_PORT,
LOG_LEVEL. See README.
`

const version = "1.0.0"

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "", "serve":
		if err := server.Run(); err != nil {
			log.Fatalf("proxy-hub serve: %v", err)
		}
	case "version":
		fmt.Println(version)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "proxy-hub: unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
}
