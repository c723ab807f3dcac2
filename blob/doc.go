// Copyright 2025 Poiesic Systems
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

// Package blob stores opaque named objects such as persisted index snapshots.
//
// LocalStore keeps objects as files below a root directory and replaces them
// atomically. S3Store keeps them in an S3 (or S3-compatible) bucket under an
// optional key prefix. Both report missing objects with ErrNotFound.
package blob
