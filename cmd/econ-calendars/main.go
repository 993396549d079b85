package main

import "github.com/econcal/econ-calendars/internal/cli"

func main() {
	cli.Execute()
}
