// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command yardcop lints YARD documentation in Ruby sources.
//
// Usage:
//
//	yardcop [flags] [paths...]
//	yardcop cops
//	yardcop config
//	yardcop cache clear
//	yardcop version
//
// Exit status is 0 when no offense reaches --fail-level, 1 when one does
// and 2 on configuration, usage or internal errors.
package main

import (
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
