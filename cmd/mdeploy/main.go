package main

import (
	"github.com/NVIDIA/marathon-deployer/pkg/cli"
)

func main() {
	cli.Execute()
}
