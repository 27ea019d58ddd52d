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


package core

import "errors"

// Domain validation errors
var (
	// ErrThresholdOutOfRange indicates a similarity threshold outside [0, 1].
	ErrThresholdOutOfRange = errors.New("similarity threshold must be between 0.0 and 1.0")

	// ErrEmptyQuery indicates an empty or whitespace-only search query.
	ErrEmptyQuery = errors.New("search query cannot be empty")
)
