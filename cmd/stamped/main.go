// Command stamped keeps a journal of visited places.
package main

import "github.com/mesh-intelligence/stamped/internal/cli"

func main() {
	cli.Execute()
}
