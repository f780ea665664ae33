package main

import (
	"os"

	"k8s.io/cli-runtime/pkg/genericiooptions"

	"github.com/openshift-assisted/crd-mcp-server/pkg/crd-mcp-server/cmd"
)

func main() {
	flags := genericiooptions.IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
	rootCmd := cmd.NewMCPServer(flags)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
