package main

import (
	"go-ml.dev/pkg/zorros/zlog"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		zlog.Error(err)
		zlog.Close()
		os.Exit(1)
	}
	zlog.Close()
}
