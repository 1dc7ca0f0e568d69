package main

import "github.com/jrjhealey/Oread/internal/cli"

func main() {
	cli.Execute()
}
