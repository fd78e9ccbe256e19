package main

import "github.com/ellavondegurechaff/simpleeco/cmd"

func main() {
	cmd.Execute()
}
