package main

import "foodbridge/cmd"

func main() {
	cmd.Execute()
}
