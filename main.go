package main

import "github.com/sbidwaibing/readme-stats/cmd"

func main() {
	cmd.Execute()
}
