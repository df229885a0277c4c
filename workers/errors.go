// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package workers

import "errors"

var ErrShutdown = errors.New("workers shutdown")
