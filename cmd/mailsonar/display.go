// Copyright 2026 The mailsonar authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"strings"

	"github.com/mailsonar/mailsonar/core"
)

const previewWidth = 60

// summarize renders one email as a single numbered line.
func summarize(n int, email *core.Email) string {
	from := email.From
	if from == "" {
		from = "(unknown sender)"
	}
	line := fmt.Sprintf("%d: %s (%s)", n, email.Subject, from)
	if preview := oneLine(email.Body); preview != "" {
		line = fmt.Sprintf("%s: %s", line, preview)
	}
	return line
}

// scoreLabel buckets a similarity score for display.
func scoreLabel(score float32) string {
	switch {
	case score >= 0.5:
		return "High"
	case score >= 0.3:
		return "Medium"
	case score >= 0.1:
		return "Low"
	default:
		return "Very Low"
	}
}

// oneLine collapses whitespace and truncates to the preview width.
func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > previewWidth {
		return string(runes[:previewWidth]) + "..."
	}
	return s
}
