package main

import "github.com/vibast-solutions/ms-go-cardgateway/cmd"

func main() {
	cmd.Execute()
}
