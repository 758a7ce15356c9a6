// Package main mints development access tokens for the HTTP API.
package main

import (
	"flag"
	"log"
	"os"

	tokencmd "github.com/tidemark/tidemark/internal/cmd/token"
)

func main() {
	cfg, err := tokencmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	if err := tokencmd.Run(cfg, os.Stdout); err != nil {
		log.Fatalf("mint token: %v", err)
	}
}
