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


// Package mailstore retrieves email from an IMAP mailbox.
//
// The store is a plain transport: it fetches and parses messages into
// core.Email records and nothing more. Failures from the server propagate
// unmodified, with no retries and no added interpretation, so callers see
// exactly what the server said.
package mailstore
