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


// Package badgercache stores mailbox folder snapshots in BadgerDB so a
// previously fetched folder can be searched without a live IMAP
// connection. A snapshot is the raw message list in fetched order plus a
// fetch timestamp; nothing derived from the messages is persisted.
package badgercache
