package pool

import "errors"

var ErrInvalidCacheSize = errors.New("pool: cache size must be positive")
