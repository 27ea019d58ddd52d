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


// Package ai defines the embedding capability used by the search engine.
//
// The Embedder interface maps text to fixed-dimension vectors; a Provider
// owns a single Embedder for the lifetime of the process. Construction
// walks an ordered list of candidate models and settles on the first one
// that answers, so a missing preferred model degrades to the fallback
// instead of failing the whole application.
//
// Subpackages provide the production implementation (openai, backed by any
// OpenAI-compatible embedding server) and a deterministic test double (mock).
package ai
