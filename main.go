package main

import "github.com/iksnae/armory-history/cmd"

func main() {
	cmd.Execute()
}
