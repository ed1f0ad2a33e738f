package main

import "github.com/dmitrijs2005/bkjournal/internal/ctl"

func main() {
	ctl.Main()
}
