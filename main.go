package main

import "github.com/harrisonrobin/whattodo/pkg/cli"

var version = "dev"

func main() {
	cli.Execute(version)
}
