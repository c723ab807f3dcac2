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

package blob

import "errors"

var (
	ErrNotFound       = errors.New("blob not found")
	ErrNameRequired   = errors.New("blob name is required")
	ErrInvalidName    = errors.New("blob name must be relative and stay inside the store")
	ErrRootRequired   = errors.New("local blob root is required")
	ErrBucketRequired = errors.New("s3 bucket is required")
	ErrUnknownKind    = errors.New("unknown blob store kind")
)
