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


// Package search ranks an in-memory email corpus by semantic relevance to
// a free-text query.
//
// The Engine orchestrates three steps per request: text normalization
// (NormalizeText, DocumentText), embedding through an ai.Embedder with all
// vectors scaled to unit norm, and similarity ranking (Ranker) with
// threshold filtering, a guaranteed non-empty fallback, and top-K
// selection. Every search re-embeds the full corpus; there is no
// persistent index.
package search
