// main.go
//
// Entry point; the grid, region and plot commands live in cmd/.

package main

import (
	"github.com/3LIAS-MB/halosim/cmd"
)

func main() {
	cmd.Execute()
}
