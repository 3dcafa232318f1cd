package main

import "github.com/Alijeyrad/staylink_backend/cmd"

func main() {
	cmd.Execute()
}
