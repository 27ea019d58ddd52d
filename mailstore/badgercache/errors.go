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


package badgercache

import "errors"

var (
	// ErrSnapshotNotFound is returned when no snapshot exists for a folder.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrFolderRequired is returned when a folder name is empty.
	ErrFolderRequired = errors.New("folder name is required")
)
