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

package config

import "errors"

var (
	ErrUnknownStore    = errors.New("unknown store backend")
	ErrUnknownCache    = errors.New("unknown cache backend")
	ErrUnknownIndex    = errors.New("unknown index backend")
	ErrStorePath       = errors.New("badger store requires a path or in_memory")
	ErrDSNRequired     = errors.New("postgres store requires a dsn")
	ErrPgvectorStore   = errors.New("pgvector index requires the postgres store")
	ErrInvalidValue    = errors.New("invalid configuration value")
	ErrInvalidVariable = errors.New("invalid environment variable")
)
