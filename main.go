package main

import "github.com/Mincrypt/P2p-share/cmd"

func main() {
	cmd.Execute()
}
