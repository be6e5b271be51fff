package main

import "github.com/kavirajk/kvs/cmd"

func main() {
	cmd.Execute()
}
