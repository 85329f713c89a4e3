// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lint hosts yardcop's cops.
//
// It parses each file once, walks the syntax tree in source order and
// hands every declaration to the cops that registered a hook for its node
// type. Cops report offenses through a per-cop Context and may attach an
// autocorrection built with a Corrector.
//
// # Architecture
//
//	Runner → Parser → Commissioner → Cop hooks → Offenses (+ Edits)
//	                                     ↓
//	                        ApplyEdits (autocorrect loop)
//
// # Severity
//
//	| Severity   | Meaning                               |
//	|------------|---------------------------------------|
//	| info       | Informational only                    |
//	| convention | Style convention (default for cops)   |
//	| warning    | Likely mistake                        |
//	| error      | Definite problem                      |
//	| fatal      | Reserved for host failures            |
//
// # Usage
//
//	runner := lint.NewRunner(cfg, cops.Default().Enabled(cfg))
//	results, err := runner.LintPaths(ctx, []string{"lib"})
//
// # Thread Safety
//
// Runner is safe for concurrent use. Context and Corrector belong to a
// single cop invocation on a single file.
package lint
