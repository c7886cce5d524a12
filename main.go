package main

import (
	"github.com/jeremyschulman/slackapptk/cmd"
)

func main() {
	cmd.Execute()
}
