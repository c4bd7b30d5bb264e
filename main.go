// The main package for the ngr-harvester executable.
package main

import (
	"github.com/geocatalogus/ngr-harvester/cmd"
)

func main() {
	cmd.Execute()
}
