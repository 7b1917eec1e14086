package main

import "github.com/wattline/contractor-erp/cmd"

func main() {
	cmd.Execute()
}
