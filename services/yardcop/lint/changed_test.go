// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
)

const samplePatch = `diff --git a/lib/a.rb b/lib/a.rb
index 1111111..2222222 100644
--- a/lib/a.rb
+++ b/lib/a.rb
@@ -1,4 +1,5 @@
 # Adds numbers
-def add(a, b)
+# @return [Integer]
+def add(a, b, c)
   a + b
 end
diff --git a/lib/gone.rb b/lib/gone.rb
deleted file mode 100644
index 3333333..0000000
--- a/lib/gone.rb
+++ /dev/null
@@ -1,1 +0,0 @@
-x = 1
`

func TestParseChangedLines(t *testing.T) {
	cl, err := ParseChangedLines([]byte(samplePatch))
	require.NoError(t, err)

	assert.Equal(t, []string{"lib/a.rb"}, cl.Files())
	assert.False(t, cl.Touches("lib/a.rb", 1, 1))
	assert.True(t, cl.Touches("lib/a.rb", 2, 2))
	assert.True(t, cl.Touches("lib/a.rb", 3, 3))
	assert.False(t, cl.Touches("lib/a.rb", 4, 5))
	assert.True(t, cl.Touches("./lib/a.rb", 1, 5), "ranges spanning an added line count")
	assert.True(t, cl.Touches("/repo/lib/a.rb", 2, 2), "suffix match")
	assert.False(t, cl.Touches("lib/other.rb", 1, 10))
}

func TestChangedLines_Filter(t *testing.T) {
	cl, err := ParseChangedLines([]byte(samplePatch))
	require.NoError(t, err)

	at := func(file string, line int) Offense {
		return Offense{File: file, Range: ast.Range{StartLine: line, EndLine: line}}
	}
	results := []*FileResult{
		{Path: "lib/a.rb", Offenses: []Offense{at("lib/a.rb", 1), at("lib/a.rb", 3)}},
		{Path: "lib/b.rb", Offenses: []Offense{at("lib/b.rb", 1)}},
		nil,
	}

	filtered := cl.Filter(results)
	require.Len(t, filtered, 2)
	require.Len(t, filtered[0].Offenses, 1)
	assert.Equal(t, 3, filtered[0].Offenses[0].Line())
	assert.Empty(t, filtered[1].Offenses)
	assert.Len(t, results[0].Offenses, 2, "input is not modified")
}

func TestParseChangedLines_Empty(t *testing.T) {
	cl, err := ParseChangedLines(nil)
	require.NoError(t, err)
	assert.Empty(t, cl.Files())
}
