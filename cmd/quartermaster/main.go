package main

import (
	"github.com/dmarchand/quartermaster-go/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
