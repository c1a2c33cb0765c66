// ./main.go
package main

import (
	"github.com/alkemir/jscrawl/cmd"
)

func main() {
	cmd.Execute()
}
