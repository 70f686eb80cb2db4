// Command perfml-tools holds offline helpers around the model registry:
// generating datasets and rendering comparison charts.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
