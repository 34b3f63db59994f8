package main

import (
	"os"

	"label-designer/internal/common/logging"
)

func main() {
	logger := logging.Must("development", "warn")
	defer logger.Sync()

	if err := newRootCmd(logger).Execute(); err != nil {
		os.Exit(1)
	}
}
