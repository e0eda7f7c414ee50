package main

import (
	"log"
	"os"

	"github.com/mcpgen/mcpgen/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
