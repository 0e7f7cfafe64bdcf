// Command greenpoint runs the GreenPoint API server and admin CLI.
package main

import "github.com/greenpoint-eco/greenpoint/internal/cli"

func main() {
	cli.Execute()
}
