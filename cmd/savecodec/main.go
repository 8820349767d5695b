// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/aaronlindsay879/savecodec/cmd/savecodec/cmd"
)

func main() {
	os.Exit(cmd.Main())
}
