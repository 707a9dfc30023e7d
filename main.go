package main

import "freelancer-hub/cmd"

func main() {
	cmd.Execute()
}
